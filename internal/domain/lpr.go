package domain

// BoundingBox là vùng ảnh OCR trả về, chỉ được chuyển tiếp, không diễn giải
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// OCRDetection là một kết quả thô của OCR engine cho một ảnh
type OCRDetection struct {
	Box        BoundingBox
	Text       string
	Confidence float64 // [0,1]
}

// RawObservation là một OCR hit gắn với phiên bản ảnh đã sinh ra nó
type RawObservation struct {
	Text        string
	Confidence  float64
	BoundingBox BoundingBox
	SourceTag   string // ví dụ "image_v2"
}

// Candidate là một giả thuyết biển số đã chuẩn hóa
type Candidate struct {
	Text         string
	Confidence   float64
	Score        float64
	Source       string // "image_v1" hoặc "image_v1+image_v3" khi ghép
	OriginalText string
}

// ValidatedPlate là biển số đã qua kiểm tra ngữ pháp và đã được format
type ValidatedPlate struct {
	Text         string  `json:"text"`
	Confidence   float64 `json:"confidence"`
	Score        float64 `json:"score"`
	Source       string  `json:"source"`
	Formatted    string  `json:"formatted"`
	OriginalText string  `json:"original_text"`
}

type RecognitionStats struct {
	TotalCandidates    int `json:"total_candidates"`
	ProcessingVersions int `json:"processing_versions"`
	ValidPlatesFound   int `json:"valid_plates_found"`
}

// RecognitionResult là kết quả thành công của một lần nhận diện.
// Lỗi nghiêm trọng được trả về qua error, không qua struct này.
type RecognitionResult struct {
	Success       bool             `json:"success"`
	LicensePlates []ValidatedPlate `json:"license_plates"`
	RecognitionStats
	Method string `json:"method"`
	Note   string `json:"note,omitempty"`
}

// LPRRequestDTO dùng khi client gửi ảnh dạng base64
type LPRRequestDTO struct {
	ImageBase64     string `json:"image_base64" binding:"required"`
	StationLocation string `json:"station_location,omitempty"`
}
