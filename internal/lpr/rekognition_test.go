package lpr

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/google/go-cmp/cmp"

	"etc_backend/internal/domain"
)

type fakeDetectText struct {
	out   *rekognition.DetectTextOutput
	err   error
	input *rekognition.DetectTextInput
}

func (f *fakeDetectText) DetectText(_ context.Context, in *rekognition.DetectTextInput, _ ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error) {
	f.input = in
	return f.out, f.err
}

func TestRekognitionReaderReadText(t *testing.T) {
	fake := &fakeDetectText{out: &rekognition.DetectTextOutput{TextDetections: []types.TextDetection{
		{
			Type:         types.TextTypesLine,
			DetectedText: aws.String("29A-123.45"),
			Confidence:   aws.Float32(92.5),
			Geometry: &types.Geometry{BoundingBox: &types.BoundingBox{
				Left: aws.Float32(0.25), Top: aws.Float32(0.5), Width: aws.Float32(0.5), Height: aws.Float32(0.125),
			}},
		},
		{Type: types.TextTypesWord, DetectedText: aws.String("29A"), Confidence: aws.Float32(50)},
		{Type: types.TextTypesWord, DetectedText: aws.String("no-confidence")},
	}}}

	got, err := NewRekognitionReader(fake).ReadText(context.Background(), image.NewGray(image.Rect(0, 0, 2, 2)))
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	want := []domain.OCRDetection{
		{Text: "29A-123.45", Confidence: 0.925, Box: domain.BoundingBox{X: 0.25, Y: 0.5, Width: 0.5, Height: 0.125}},
		{Text: "29A", Confidence: 0.5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("detections mismatch (-want +got):\n%s", diff)
	}
	if fake.input == nil || fake.input.Image == nil || len(fake.input.Image.Bytes) == 0 {
		t.Fatalf("expected PNG bytes to be sent to Rekognition")
	}
}

func TestRekognitionReaderError(t *testing.T) {
	fake := &fakeDetectText{err: errors.New("throttled")}
	if _, err := NewRekognitionReader(fake).ReadText(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1))); err == nil {
		t.Fatalf("expected error")
	}
}
