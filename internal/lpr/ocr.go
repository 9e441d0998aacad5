package lpr

import (
	"context"
	"image"
	"sync"

	"etc_backend/internal/domain"
)

// TextReader là OCR engine bên ngoài: đọc toàn bộ text nó tìm được trên một ảnh.
type TextReader interface {
	Name() string
	ReadText(ctx context.Context, img image.Image) ([]domain.OCRDetection, error)
}

// ReaderFactory khởi tạo OCR engine, có thể tốn thời gian (tải model, load AWS config).
type ReaderFactory func() (TextReader, error)

// SharedReader giữ một TextReader dùng chung cho cả process, khởi tạo lazy đúng một lần.
// Lỗi khởi tạo cũng được ghi nhớ, các lần gọi sau trả về cùng lỗi.
type SharedReader struct {
	factory ReaderFactory

	once   sync.Once
	reader TextReader
	err    error
}

func NewSharedReader(factory ReaderFactory) *SharedReader {
	return &SharedReader{factory: factory}
}

// Get trả về reader đã khởi tạo. An toàn khi gọi đồng thời.
func (s *SharedReader) Get() (TextReader, error) {
	s.once.Do(func() {
		s.reader, s.err = s.factory()
	})
	return s.reader, s.err
}
