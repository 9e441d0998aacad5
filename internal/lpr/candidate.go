package lpr

import (
	"sort"

	"etc_backend/internal/domain"
)

const (
	highConfidence   = 0.7
	mediumConfidence = 0.5

	minPlateLength  = 6
	maxMergedLength = 10

	// mergePenalty áp dụng cho ứng viên ghép từ hai mảnh
	mergePenalty = 0.9
)

type normalizedObservation struct {
	domain.RawObservation
	text string
}

// GenerateCandidates chuyển danh sách OCR hit thô thành các ứng viên biển số đã chấm điểm.
//
// Hit độ tin cậy cao (> 0.7) được giữ nguyên nếu đủ 6 ký tự. Hit độ tin cậy trung bình
// (0.5..0.7) chỉ được dùng để ghép theo từng cặp có thứ tự (A+B và B+A). Hit dưới 0.5 bị bỏ.
// Kết quả được khử trùng theo text (ứng viên xuất hiện trước thắng) và sắp xếp ổn định
// theo score giảm dần.
func GenerateCandidates(observations []domain.RawObservation) []domain.Candidate {
	var high, medium []normalizedObservation
	for _, o := range observations {
		n := normalizedObservation{RawObservation: o, text: Normalize(o.Text)}
		switch {
		case o.Confidence > highConfidence:
			high = append(high, n)
		case o.Confidence >= mediumConfidence:
			medium = append(medium, n)
		}
	}

	var candidates []domain.Candidate
	for _, h := range high {
		if len(h.text) < minPlateLength {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Text:         h.text,
			Confidence:   h.Confidence,
			Score:        h.Confidence,
			Source:       h.SourceTag,
			OriginalText: h.Text,
		})
	}

	for i, c1 := range medium {
		for j, c2 := range medium {
			if i == j {
				continue
			}
			merged := c1.text + c2.text
			if len(merged) < minPlateLength || len(merged) > maxMergedLength {
				continue
			}
			avg := (c1.Confidence + c2.Confidence) / 2
			candidates = append(candidates, domain.Candidate{
				Text:         merged,
				Confidence:   avg,
				Score:        avg * mergePenalty,
				Source:       c1.SourceTag + "+" + c2.SourceTag,
				OriginalText: c1.Text + "+" + c2.Text,
			})
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	unique := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.Text]; ok {
			continue
		}
		seen[c.Text] = struct{}{}
		unique = append(unique, c)
	}

	sort.SliceStable(unique, func(a, b int) bool {
		return unique[a].Score > unique[b].Score
	})
	return unique
}
