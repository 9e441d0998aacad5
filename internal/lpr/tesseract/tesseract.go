// Package tesseract cung cấp OCR engine chạy local dựa trên Tesseract (gosseract).
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"etc_backend/internal/domain"
	"etc_backend/internal/lpr"
)

// Reader đọc text bằng Tesseract. Mỗi lần đọc dùng một client riêng,
// vì gosseract.Client không an toàn khi dùng đồng thời.
type Reader struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

func NewReader(languages ...string) *Reader {
	return &Reader{
		languages:     append([]string(nil), languages...),
		clientFactory: gosseract.NewClient,
	}
}

// Factory kiểm tra Tesseract có dùng được không trước khi trả reader.
func Factory(languages ...string) lpr.ReaderFactory {
	return func() (lpr.TextReader, error) {
		r := NewReader(languages...)
		c := r.clientFactory()
		defer c.Close()
		if len(r.languages) > 0 {
			if err := c.SetLanguage(r.languages...); err != nil {
				return nil, fmt.Errorf("tesseract: set languages: %w", err)
			}
		}
		if gosseract.Version() == "" {
			return nil, fmt.Errorf("tesseract: không tìm thấy thư viện tesseract")
		}
		return r, nil
	}
}

func (r *Reader) Name() string { return "tesseract" }

func (r *Reader) ReadText(ctx context.Context, img image.Image) ([]domain.OCRDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	c := r.clientFactory()
	defer c.Close()
	if len(r.languages) > 0 {
		if err := c.SetLanguage(r.languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	var detections []domain.OCRDetection
	for _, level := range []gosseract.PageIteratorLevel{gosseract.RIL_TEXTLINE, gosseract.RIL_WORD} {
		boxes, err := c.GetBoundingBoxes(level)
		if err != nil {
			return nil, fmt.Errorf("bounding boxes: %w", err)
		}
		for _, b := range boxes {
			detections = append(detections, domain.OCRDetection{
				Box: domain.BoundingBox{
					X:      float64(b.Box.Min.X),
					Y:      float64(b.Box.Min.Y),
					Width:  float64(b.Box.Dx()),
					Height: float64(b.Box.Dy()),
				},
				Text:       b.Word,
				Confidence: b.Confidence / 100.0,
			})
		}
	}
	return detections, nil
}
