package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"etc_backend/internal/lpr"
	"etc_backend/internal/lpr/engine"
)

var scanFlags struct {
	engine    string
	region    string
	languages []string
}

var scanCmd = &cobra.Command{
	Use:   "scan <image>",
	Short: "Nhận diện biển số trong một file ảnh và in kết quả JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	f := scanCmd.Flags()
	f.StringVar(&scanFlags.engine, "engine", engine.Tesseract, "OCR engine: rekognition, tesseract hoặc none")
	f.StringVar(&scanFlags.region, "region", "ap-southeast-1", "AWS region cho Rekognition")
	f.StringSliceVar(&scanFlags.languages, "lang", []string{"eng"}, "Ngôn ngữ Tesseract")
}

func runScan(cmd *cobra.Command, args []string) error {
	reader, err := engine.SharedReader(scanFlags.engine, scanFlags.region, scanFlags.languages)
	if err != nil {
		return err
	}
	result, err := lpr.NewRecognizer(reader, nil).Recognize(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("nhận diện thất bại: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
