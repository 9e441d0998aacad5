package lpr

import (
	"regexp"
	"strings"
	"unicode"
)

var plateGroups = regexp.MustCompile(`^(\d{2}[A-Z]{1,2})(\d{4,5})$`)

// FormatPlate đưa biển số về dạng hiển thị chuẩn: 30G12345 -> 30G-12345.
// Chuỗi không khớp định dạng được trả về ở dạng đã làm sạch.
func FormatPlate(text string) string {
	clean := strings.Map(func(r rune) rune {
		if r == '-' || r == '.' || isSeparatorSpace(r) {
			return -1
		}
		return r
	}, upper(text))
	if m := plateGroups.FindStringSubmatch(clean); m != nil {
		return m[1] + "-" + m[2]
	}
	return clean
}

// isSeparatorSpace gồm cả khoảng trắng Unicode (NBSP, \v) và các ký tự phân tách 0x1C-0x1F
func isSeparatorSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
