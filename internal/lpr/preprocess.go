package lpr

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Preprocessor sinh nhiều phiên bản ảnh để tăng khả năng OCR đọc đúng ít nhất một bản.
// Thứ tự kết quả quyết định sourceTag ("image_v<index+1>").
type Preprocessor interface {
	GenerateVariants(img image.Image) ([]image.Image, error)
}

// VariantGenerator tạo 5 phiên bản bằng OpenCV: ảnh gốc, grayscale tăng tương phản,
// threshold Otsu, morphology close trên ảnh Otsu, Gaussian blur + threshold cố định.
type VariantGenerator struct{}

func NewVariantGenerator() *VariantGenerator {
	return &VariantGenerator{}
}

const (
	contrastAlpha  = 1.5
	contrastBeta   = 30
	fixedThreshold = 127
)

var (
	closeKernelSize = image.Pt(2, 2)
	blurKernelSize  = image.Pt(5, 5)
)

func (g *VariantGenerator) GenerateVariants(img image.Image) ([]image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("ảnh rỗng")
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("ảnh có kích thước 0: %v", b)
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("lỗi chuyển ảnh sang Mat: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	contrast := gocv.NewMat()
	defer contrast.Close()
	gocv.ConvertScaleAbs(gray, &contrast, contrastAlpha, contrastBeta)

	otsu := gocv.NewMat()
	defer otsu.Close()
	gocv.Threshold(gray, &otsu, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, closeKernelSize)
	defer kernel.Close()
	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(otsu, &closed, gocv.MorphClose, kernel)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, blurKernelSize, 0, 0, gocv.BorderDefault)
	blurBinary := gocv.NewMat()
	defer blurBinary.Close()
	gocv.Threshold(blurred, &blurBinary, fixedThreshold, 255, gocv.ThresholdBinary)

	variants := []image.Image{img}
	for i, m := range []gocv.Mat{contrast, otsu, closed, blurBinary} {
		out, err := m.ToImage()
		if err != nil {
			return nil, fmt.Errorf("lỗi chuyển Mat phiên bản %d sang ảnh: %w", i+2, err)
		}
		variants = append(variants, out)
	}
	return variants, nil
}
