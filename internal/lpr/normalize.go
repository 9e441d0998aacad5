package lpr

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// confusables lists letters OCR tends to read in place of digits.
// Order matters: the digit count is re-checked before each pair.
var confusables = []struct {
	from string
	to   string
}{
	{"O", "0"},
	{"I", "1"},
	{"Z", "2"},
	{"S", "5"},
	{"G", "6"},
	{"B", "8"},
	{"Q", "0"},
}

// minDigitsForLetters là số chữ số mà từ đó chuỗi được coi là đã đủ số,
// không thay chữ thành số nữa.
const minDigitsForLetters = 3

// Normalize làm sạch text OCR thô thành token chữ-số in hoa.
// Chỉ giữ lại [A-Z0-9-.], sau đó thay các chữ dễ nhầm bằng số khi chuỗi còn ít hơn 3 chữ số.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	up := upper(raw)
	var b strings.Builder
	b.Grow(len(up))
	for i := 0; i < len(up); i++ {
		c := up[i]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '.' {
			b.WriteByte(c)
		}
	}
	cleaned := b.String()

	for _, p := range confusables {
		if strings.Contains(cleaned, p.from) && countDigits(cleaned) < minDigitsForLetters {
			cleaned = strings.ReplaceAll(cleaned, p.from, p.to)
		}
	}
	return cleaned
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}

// upper in hoa đầy đủ theo Unicode, kể cả ký tự tách thành nhiều chữ ("ß" -> "SS").
// Caser không an toàn khi dùng đồng thời nên tạo mới mỗi lần.
func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}
