package lpr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsgo_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"etc_backend/internal/domain"
)

// DetectTextAPI là phần Rekognition client mà reader cần.
type DetectTextAPI interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// RekognitionReader dùng AWS Rekognition DetectText làm OCR engine.
type RekognitionReader struct {
	client DetectTextAPI
}

func NewRekognitionReader(client DetectTextAPI) *RekognitionReader {
	return &RekognitionReader{client: client}
}

// RekognitionFactory load AWS config khi reader được dùng lần đầu.
func RekognitionFactory(region string) ReaderFactory {
	return func() (TextReader, error) {
		cfg, err := awsgo_config.LoadDefaultConfig(context.Background(), awsgo_config.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("không thể tải AWS SDK config: %w", err)
		}
		return NewRekognitionReader(rekognition.NewFromConfig(cfg)), nil
	}
}

func (r *RekognitionReader) Name() string { return "rekognition" }

func (r *RekognitionReader) ReadText(ctx context.Context, img image.Image) ([]domain.OCRDetection, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("lỗi encode ảnh: %w", err)
	}

	out, err := r.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: buf.Bytes()},
	})
	if err != nil {
		return nil, fmt.Errorf("lỗi Rekognition: %w", err)
	}

	detections := make([]domain.OCRDetection, 0, len(out.TextDetections))
	for _, td := range out.TextDetections {
		if td.Type != types.TextTypesLine && td.Type != types.TextTypesWord {
			continue
		}
		if td.DetectedText == nil || td.Confidence == nil {
			continue
		}
		detections = append(detections, domain.OCRDetection{
			Box:        boxFromGeometry(td.Geometry),
			Text:       aws.ToString(td.DetectedText),
			Confidence: float64(*td.Confidence) / 100,
		})
	}
	return detections, nil
}

func boxFromGeometry(g *types.Geometry) domain.BoundingBox {
	if g == nil || g.BoundingBox == nil {
		return domain.BoundingBox{}
	}
	bb := g.BoundingBox
	return domain.BoundingBox{
		X:      float64(aws.ToFloat32(bb.Left)),
		Y:      float64(aws.ToFloat32(bb.Top)),
		Width:  float64(aws.ToFloat32(bb.Width)),
		Height: float64(aws.ToFloat32(bb.Height)),
	}
}
