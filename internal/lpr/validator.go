package lpr

import (
	"regexp"
	"strings"
)

// Biển số Việt Nam: 2 số tỉnh, 1-2 chữ seri, 4-5 số thứ tự.
// Ba mẫu đều tương đương sau khi bỏ dấu phân cách, giữ riêng để dễ mở rộng thêm định dạng.
var platePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{2}[A-Z]{1,2}\d{4,5}$`),     // 30G1234, 51AB1234
	regexp.MustCompile(`^\d{2}[A-Z]{1,2}-?\d{4,5}$`),   // 30G-1234, 51AB-1234
	regexp.MustCompile(`^\d{2}-?[A-Z]{1,2}-?\d{4,5}$`), // 30-G-1234
}

// platePrefixPattern chấp nhận cả chuỗi có ký tự thừa phía sau
var platePrefixPattern = regexp.MustCompile(`^\d{2}[A-Z]{1,2}\d{4,5}`)

var separatorStripper = strings.NewReplacer("-", "", ".", "")

// IsValidPlate kiểm tra text đã chuẩn hóa có khớp định dạng biển số Việt Nam không.
func IsValidPlate(text string) bool {
	if len(text) < minPlateLength {
		return false
	}

	compact := separatorStripper.Replace(text)
	for _, p := range platePatterns {
		if p.MatchString(compact) {
			return true
		}
	}
	return platePrefixPattern.MatchString(compact)
}
