// Package normalize rewrites raw Mandarin input into the punctuation- and
// numeral-normalized form the G2P engine expects: Arabic numerals spelled
// out, CJK punctuation folded onto a small ASCII set, and any character
// outside Han/Latin/digit/whitespace/punctuation stripped.
package normalize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Rorical/sbv2-onnx-server/pkg/numeral"
	"github.com/Rorical/sbv2-onnx-server/pkg/symbols"
)

var replaceMap = map[string]string{
	"：": ",", "；": ",", "，": ",", "。": ".", "！": "!", "？": "?",
	"\n": ".", "·": ",", "、": ",", "...": "…", "$": ".",
	"“": "'", "”": "'", "\"": "'", "‘": "'", "’": "'",
	"（": "'", "）": "'", "(": "'", ")": "'",
	"《": "'", "》": "'", "【": "'", "】": "'", "[": "'", "]": "'",
	"—": "-", "～": "-", "~": "-", "「": "'", "」": "'",
}

var replacePattern = buildReplacePattern()

func buildReplacePattern() *regexp.Regexp {
	keys := make([]string, 0, len(replaceMap))
	for k := range replaceMap {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	escaped := make([]string, len(keys))
	for i, k := range keys {
		escaped[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(strings.Join(escaped, "|"))
}

var nonChinesePattern = buildNonChinesePattern()

func buildNonChinesePattern() *regexp.Regexp {
	var punct strings.Builder
	for _, p := range symbols.Punctuations {
		punct.WriteString(regexp.QuoteMeta(p))
	}
	return regexp.MustCompile(`[^\x{4e00}-\x{9fa5}A-Za-z0-9\s` + punct.String() + `]+`)
}

// NormalizeText converts Arabic numerals to Hanzi and then normalizes
// punctuation, the single entry point the G2P engine calls before
// segmentation.
func NormalizeText(text string) string {
	return ReplacePunctuation(numeral.ReplaceNumbers(text))
}

// ReplacePunctuation folds CJK punctuation onto an ASCII-ish subset and
// strips characters outside Han/Latin/digit/whitespace/punctuation.
func ReplacePunctuation(text string) string {
	replaced := replacePattern.ReplaceAllStringFunc(text, func(m string) string {
		if v, ok := replaceMap[m]; ok {
			return v
		}
		return ""
	})
	replaced = strings.ReplaceAll(replaced, "嗯", "恩")
	replaced = strings.ReplaceAll(replaced, "呣", "母")
	return nonChinesePattern.ReplaceAllString(replaced, "")
}
