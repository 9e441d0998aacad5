// Package engine chọn OCR engine theo cấu hình.
package engine

import (
	"fmt"
	"strings"

	"etc_backend/internal/lpr"
	"etc_backend/internal/lpr/tesseract"
)

const (
	Rekognition = "rekognition"
	Tesseract   = "tesseract"
	None        = "none"
)

// SharedReader trả reader dùng chung cho engine được chọn.
// Với "none" trả nil: Recognizer sẽ dùng kết quả fallback.
func SharedReader(name, awsRegion string, languages []string) (*lpr.SharedReader, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Rekognition:
		return lpr.NewSharedReader(lpr.RekognitionFactory(awsRegion)), nil
	case Tesseract:
		return lpr.NewSharedReader(tesseract.Factory(languages...)), nil
	case None, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("OCR engine không hỗ trợ: '%s' (chọn %s, %s hoặc %s)", name, Rekognition, Tesseract, None)
	}
}
