// Package numeral converts Arabic numerals embedded in Mandarin text into
// their Hanzi spelling, the way a TTS front end needs them read aloud.
package numeral

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

var digits = []string{"零", "一", "二", "三", "四", "五", "六", "七", "八", "九"}
var units = []string{"", "十", "百", "千"}
var sectionUnits = []string{"", "万", "亿", "兆", "京"}

// ReplaceNumbers rewrites every Arabic numeral run in s with its Hanzi
// reading, leaving everything else untouched.
func ReplaceNumbers(s string) string {
	return numberPattern.ReplaceAllStringFunc(s, An2Cn)
}

// An2Cn converts a single Arabic numeral literal (optionally with one
// decimal point) to its Hanzi reading. Input that isn't a valid integer is
// returned unchanged.
func An2Cn(s string) string {
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]

	value, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return s
	}
	result := convertInteger(value)

	if len(parts) == 2 && parts[1] != "" {
		var b strings.Builder
		b.WriteString(result)
		b.WriteString("点")
		for _, r := range parts[1] {
			d := int(r - '0')
			if d >= 0 && d <= 9 {
				b.WriteString(digits[d])
			}
		}
		result = b.String()
	}
	return result
}

func convertInteger(value int64) string {
	if value == 0 {
		return digits[0]
	}

	negative := value < 0
	if negative {
		value = -value
	}

	result := ""
	needZero := false
	sectionIndex := 0

	for value > 0 {
		section := value % 10000
		if section != 0 {
			chunk := convertSection(section)
			chunk += sectionUnits[sectionIndex]
			if needZero && !strings.HasPrefix(result, "零") {
				result = "零" + result
			}
			result = chunk + result
			needZero = section < 1000 && value >= 10000
		} else if result != "" {
			needZero = true
		}
		value /= 10000
		sectionIndex++
	}

	if strings.HasPrefix(result, "一十") && len([]rune(result)) > 2 {
		result = "十" + strings.TrimPrefix(result, "一十")
	}

	if negative {
		result = "负" + result
	}
	return result
}

// convertSection converts a value in [1, 9999] to its Hanzi reading,
// without a section unit suffix.
func convertSection(section int64) string {
	runes := []rune(strconv.FormatInt(section, 10))
	n := len(runes)

	var parts []string
	zeroPending := false
	for i, r := range runes {
		d := int(r - '0')
		power := n - i - 1
		if d == 0 {
			zeroPending = true
			continue
		}
		if zeroPending && len(parts) > 0 {
			parts = append(parts, "零")
		}
		zeroPending = false
		parts = append(parts, digits[d]+units[power])
	}

	result := strings.Join(parts, "")
	result = strings.TrimSuffix(result, "零")
	return result
}
