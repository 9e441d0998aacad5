package lpr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"etc_backend/internal/domain"
)

// scriptedReader trả về kết quả theo thứ tự lần gọi (mỗi lần gọi là một phiên bản ảnh)
type scriptedReader struct {
	calls   int
	results [][]domain.OCRDetection
	errs    []error
}

func (r *scriptedReader) Name() string { return "scripted" }

func (r *scriptedReader) ReadText(_ context.Context, _ image.Image) ([]domain.OCRDetection, error) {
	i := r.calls
	r.calls++
	if i < len(r.errs) && r.errs[i] != nil {
		return nil, r.errs[i]
	}
	if i < len(r.results) {
		return r.results[i], nil
	}
	return nil, nil
}

type copyPreprocessor struct {
	n   int
	err error
}

func (p copyPreprocessor) GenerateVariants(img image.Image) ([]image.Image, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make([]image.Image, p.n)
	for i := range out {
		out[i] = img
	}
	return out, nil
}

func readerOf(r TextReader) *SharedReader {
	return NewSharedReader(func() (TextReader, error) { return r, nil })
}

func det(text string, conf float64) domain.OCRDetection {
	return domain.OCRDetection{Text: text, Confidence: conf}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plate.png")
	if err := os.WriteFile(path, pngBytes(t), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}

func TestRecognizeRanksValidPlates(t *testing.T) {
	reader := &scriptedReader{results: [][]domain.OCRDetection{
		{det("51G1", 0.7), det("ABCDEF", 0.95)},
		{det("2345", 0.7), det("29A-12345", 0.9)},
	}}
	r := NewRecognizer(readerOf(reader), copyPreprocessor{n: 2})

	got, err := r.Recognize(context.Background(), writeImage(t))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	merged := 0.7
	want := &domain.RecognitionResult{
		Success: true,
		LicensePlates: []domain.ValidatedPlate{
			{Text: "29A-12345", Confidence: 0.9, Score: 0.9, Source: "image_v2", Formatted: "29A-12345", OriginalText: "29A-12345"},
			{Text: "51G-12345", Confidence: 0.7, Score: merged * 0.9, Source: "image_v1+image_v2", Formatted: "51G-12345", OriginalText: "51G1+2345"},
		},
		RecognitionStats: domain.RecognitionStats{TotalCandidates: 4, ProcessingVersions: 2, ValidPlatesFound: 2},
		Method:           "scripted",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestRecognizeConfidenceBeforeScore(t *testing.T) {
	plates := []domain.ValidatedPlate{
		{Text: "A", Confidence: 0.6, Score: 0.9},
		{Text: "B", Confidence: 0.8, Score: 0.1},
		{Text: "C", Confidence: 0.6, Score: 0.95},
	}
	rankPlates(plates)
	var order string
	for _, p := range plates {
		order += p.Text
	}
	if order != "BCA" {
		t.Fatalf("rank order = %s, want BCA", order)
	}
}

func TestRecognizeSkipsFailingVariant(t *testing.T) {
	reader := &scriptedReader{
		results: [][]domain.OCRDetection{nil, {det("29A-12345", 0.9)}},
		errs:    []error{errors.New("ocr crashed")},
	}
	r := NewRecognizer(readerOf(reader), copyPreprocessor{n: 2})

	got, err := r.Recognize(context.Background(), writeImage(t))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if len(got.LicensePlates) != 1 || got.LicensePlates[0].Source != "image_v2" {
		t.Fatalf("unexpected plates: %+v", got.LicensePlates)
	}
	if got.ProcessingVersions != 2 || got.TotalCandidates != 1 {
		t.Fatalf("unexpected stats: %+v", got.RecognitionStats)
	}
}

func TestRecognizeDegradesOnPreprocessingError(t *testing.T) {
	reader := &scriptedReader{results: [][]domain.OCRDetection{{det("30G12345", 0.8)}}}
	r := NewRecognizer(readerOf(reader), copyPreprocessor{err: errors.New("boom")})

	got, err := r.Recognize(context.Background(), writeImage(t))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if got.ProcessingVersions != 1 || reader.calls != 1 {
		t.Fatalf("expected a single original variant, got %d versions / %d calls", got.ProcessingVersions, reader.calls)
	}
	if len(got.LicensePlates) != 1 || got.LicensePlates[0].Formatted != "30G-12345" {
		t.Fatalf("unexpected plates: %+v", got.LicensePlates)
	}
}

func TestRecognizeNoPlatesIsSuccess(t *testing.T) {
	reader := &scriptedReader{results: [][]domain.OCRDetection{{det("29A12345", 0.3), det("30G", 0.2)}}}
	r := NewRecognizer(readerOf(reader), copyPreprocessor{n: 1})

	got, err := r.Recognize(context.Background(), writeImage(t))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if !got.Success || len(got.LicensePlates) != 0 || got.ValidPlatesFound != 0 {
		t.Fatalf("expected empty success, got %+v", got)
	}
	if got.TotalCandidates != 2 {
		t.Fatalf("total candidates = %d, want 2", got.TotalCandidates)
	}
}

func TestRecognizeFatalErrors(t *testing.T) {
	ctx := context.Background()
	r := NewRecognizer(readerOf(&scriptedReader{}), copyPreprocessor{n: 1})

	if _, err := r.Recognize(ctx, filepath.Join(t.TempDir(), "missing.png")); !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Recognize(ctx, bad); !errors.Is(err, ErrUnreadableImage) {
		t.Fatalf("expected ErrUnreadableImage, got %v", err)
	}
	if _, err := r.RecognizeImage(ctx, nil); !errors.Is(err, ErrUnreadableImage) {
		t.Fatalf("expected ErrUnreadableImage for empty data, got %v", err)
	}
}

func TestRecognizeOCRUnavailable(t *testing.T) {
	inits := 0
	shared := NewSharedReader(func() (TextReader, error) {
		inits++
		return nil, errors.New("model missing")
	})
	r := NewRecognizer(shared, copyPreprocessor{n: 1})
	path := writeImage(t)

	for i := 0; i < 2; i++ {
		if _, err := r.Recognize(context.Background(), path); !errors.Is(err, ErrOCRUnavailable) {
			t.Fatalf("expected ErrOCRUnavailable, got %v", err)
		}
	}
	if inits != 1 {
		t.Fatalf("reader factory called %d times, want 1", inits)
	}
}

func TestRecognizeFallbackWithoutEngine(t *testing.T) {
	r := NewRecognizer(nil, nil)
	got, err := r.Recognize(context.Background(), "/does/not/matter.jpg")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if !got.Success || got.Method != FallbackMethod || len(got.LicensePlates) != 1 {
		t.Fatalf("unexpected fallback result: %+v", got)
	}
	if p := got.LicensePlates[0]; p.Source != FallbackSource || p.Formatted != "30G-49729" {
		t.Fatalf("unexpected fallback plate: %+v", p)
	}
}

func TestRecognizeImageFromBytes(t *testing.T) {
	reader := &scriptedReader{results: [][]domain.OCRDetection{{det("29A12345", 0.9)}}}
	r := NewRecognizer(readerOf(reader), copyPreprocessor{n: 1})

	got, err := r.RecognizeImage(context.Background(), pngBytes(t))
	if err != nil {
		t.Fatalf("RecognizeImage() error = %v", err)
	}
	if len(got.LicensePlates) != 1 || got.LicensePlates[0].Text != "29A-12345" {
		t.Fatalf("unexpected plates: %+v", got.LicensePlates)
	}
}
