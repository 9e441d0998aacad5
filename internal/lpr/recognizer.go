package lpr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"sort"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"etc_backend/internal/domain"
)

var (
	ErrImageNotFound   = errors.New("không tìm thấy file ảnh")
	ErrUnreadableImage = errors.New("không thể đọc file ảnh - định dạng không hỗ trợ")
	ErrOCRUnavailable  = errors.New("không thể khởi tạo OCR reader")
)

const (
	FallbackSource = "fallback_mock"
	FallbackMethod = "fallback"

	fallbackPlate      = "30G-49729"
	fallbackConfidence = 0.85
)

// Recognizer điều phối toàn bộ pipeline nhận diện cho một ảnh:
// sinh phiên bản ảnh -> OCR từng phiên bản -> sinh ứng viên -> kiểm tra + format -> xếp hạng.
// Không giữ trạng thái giữa các lần gọi ngoài reader dùng chung.
type Recognizer struct {
	reader       *SharedReader
	preprocessor Preprocessor
}

// NewRecognizer tạo Recognizer. reader nil nghĩa là không có OCR engine,
// khi đó mọi lần nhận diện trả về kết quả fallback.
func NewRecognizer(reader *SharedReader, preprocessor Preprocessor) *Recognizer {
	if preprocessor == nil {
		preprocessor = NewVariantGenerator()
	}
	return &Recognizer{reader: reader, preprocessor: preprocessor}
}

// Recognize nhận diện biển số từ file ảnh trên đĩa.
func (r *Recognizer) Recognize(ctx context.Context, imagePath string) (*domain.RecognitionResult, error) {
	if r.reader == nil {
		return fallbackResult(), nil
	}

	if _, err := os.Stat(imagePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w tại: %s", ErrImageNotFound, imagePath)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	f, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	return r.recognizeDecoded(ctx, img)
}

// RecognizeImage chạy cùng pipeline cho ảnh đã có trong bộ nhớ (upload base64, sự kiện làn thu phí).
func (r *Recognizer) RecognizeImage(ctx context.Context, data []byte) (*domain.RecognitionResult, error) {
	if r.reader == nil {
		return fallbackResult(), nil
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: dữ liệu ảnh rỗng", ErrUnreadableImage)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	return r.recognizeDecoded(ctx, img)
}

func (r *Recognizer) recognizeDecoded(ctx context.Context, img image.Image) (*domain.RecognitionResult, error) {
	variants, err := r.preprocessor.GenerateVariants(img)
	if err != nil || len(variants) == 0 {
		log.Printf("Recognizer: Lỗi tiền xử lý ảnh, dùng ảnh gốc: %v", err)
		variants = []image.Image{img}
	}

	reader, err := r.reader.Get()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOCRUnavailable, err)
	}
	if reader == nil {
		return nil, ErrOCRUnavailable
	}

	var observations []domain.RawObservation
	for i, variant := range variants {
		tag := fmt.Sprintf("image_v%d", i+1)
		detections, err := reader.ReadText(ctx, variant)
		if err != nil {
			log.Printf("Recognizer: Lỗi OCR phiên bản %s, bỏ qua: %v", tag, err)
			continue
		}
		for _, d := range detections {
			observations = append(observations, domain.RawObservation{
				Text:        d.Text,
				Confidence:  d.Confidence,
				BoundingBox: d.Box,
				SourceTag:   tag,
			})
		}
	}

	candidates := GenerateCandidates(observations)
	plates := make([]domain.ValidatedPlate, 0, len(candidates))
	for _, c := range candidates {
		if !IsValidPlate(c.Text) {
			continue
		}
		formatted := FormatPlate(c.Text)
		plates = append(plates, domain.ValidatedPlate{
			Text:         formatted,
			Confidence:   c.Confidence,
			Score:        c.Score,
			Source:       c.Source,
			Formatted:    formatted,
			OriginalText: c.OriginalText,
		})
	}
	rankPlates(plates)

	log.Printf("Recognizer: %d phiên bản ảnh, %d OCR hit, %d ứng viên, %d biển số hợp lệ",
		len(variants), len(observations), len(candidates), len(plates))

	return &domain.RecognitionResult{
		Success:       true,
		LicensePlates: plates,
		RecognitionStats: domain.RecognitionStats{
			TotalCandidates:    len(observations),
			ProcessingVersions: len(variants),
			ValidPlatesFound:   len(plates),
		},
		Method: reader.Name(),
	}, nil
}

// rankPlates: confidence là khóa chính, score là khóa phụ, cả hai giảm dần
func rankPlates(plates []domain.ValidatedPlate) {
	sort.SliceStable(plates, func(i, j int) bool {
		if plates[i].Confidence != plates[j].Confidence {
			return plates[i].Confidence > plates[j].Confidence
		}
		return plates[i].Score > plates[j].Score
	})
}

func fallbackResult() *domain.RecognitionResult {
	log.Println("Recognizer: OCR engine không khả dụng - sử dụng fallback detection")
	return &domain.RecognitionResult{
		Success: true,
		LicensePlates: []domain.ValidatedPlate{{
			Text:       fallbackPlate,
			Confidence: fallbackConfidence,
			Score:      fallbackConfidence,
			Source:     FallbackSource,
			Formatted:  FormatPlate(fallbackPlate),
		}},
		RecognitionStats: domain.RecognitionStats{
			ProcessingVersions: 0,
			ValidPlatesFound:   1,
		},
		Method: FallbackMethod,
		Note:   "OCR engine không khả dụng - sử dụng fallback detection",
	}
}
