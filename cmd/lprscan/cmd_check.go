package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"etc_backend/internal/lpr"
)

var checkCmd = &cobra.Command{
	Use:   "check <text>...",
	Short: "Chuẩn hóa, kiểm tra và format chuỗi biển số",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, raw := range args {
		normalized := lpr.Normalize(raw)
		valid := lpr.IsValidPlate(normalized)
		formatted := "-"
		if valid {
			formatted = lpr.FormatPlate(normalized)
		}
		fmt.Fprintf(out, "%-14s normalized=%-12s valid=%-5t formatted=%s\n", raw, normalized, valid, formatted)
	}
	return nil
}
