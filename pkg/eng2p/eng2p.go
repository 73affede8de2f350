// Package eng2p provides the English fallback grapheme-to-phoneme path:
// CMUdict lookup with acronym and letter-by-letter fallbacks, used whenever
// the Chinese G2P pipeline meets a Latin-alphabet token embedded in
// otherwise-Mandarin text.
package eng2p

import (
	_ "embed"
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Rorical/sbv2-onnx-server/pkg/symbols"
)

//go:embed cmudict.rep
var cmudictData string

var arpaSet = map[string]struct{}{
	"AH0": {}, "S": {}, "AH1": {}, "EY2": {}, "AE2": {}, "EH0": {}, "OW2": {}, "UH0": {}, "NG": {}, "B": {},
	"G": {}, "AY0": {}, "M": {}, "AA0": {}, "F": {}, "AO0": {}, "ER2": {}, "UH1": {}, "IY1": {}, "AH2": {},
	"DH": {}, "IY0": {}, "EY1": {}, "IH0": {}, "K": {}, "N": {}, "W": {}, "IY2": {}, "T": {}, "AA1": {},
	"ER1": {}, "EH2": {}, "OY0": {}, "UH2": {}, "UW1": {}, "Z": {}, "AW2": {}, "AW1": {}, "V": {}, "UW2": {},
	"AA2": {}, "ER": {}, "AW0": {}, "UW0": {}, "R": {}, "OW1": {}, "EH1": {}, "ZH": {}, "AE0": {}, "IH2": {},
	"IH": {}, "Y": {}, "JH": {}, "P": {}, "AY1": {}, "EY0": {}, "OY2": {}, "TH": {}, "HH": {}, "D": {},
	"ER0": {}, "CH": {}, "AO1": {}, "AE1": {}, "AO2": {}, "OY1": {}, "AY2": {}, "IH1": {}, "OW0": {}, "L": {},
	"SH": {},
}

var cmudict = loadCMUdict(cmudictData)

// Result is the per-token output of G2PWord: parallel phones/tones, plus a
// count of phones contributed by each rune of the original token so the
// caller can build a matching word2ph slice.
type Result struct {
	Phones         []string
	Tones          []int
	CharPhoneCount []int
}

const cacheCapacity = 4096

var wordCache, _ = lru.New[string, Result](cacheCapacity)

// IsEnglishToken reports whether token is made up only of ASCII
// alphanumerics, apostrophes and hyphens — the set the Chinese G2P engine
// treats as "not Chinese, hand off to English G2P".
func IsEnglishToken(token string) bool {
	for _, ch := range token {
		if !(ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || ch == '\'' || ch == '-') {
			return false
		}
	}
	return true
}

// G2PWord converts a single English-like token to phones/tones, caching by
// the raw token text.
func G2PWord(token string) Result {
	if cached, ok := wordCache.Get(token); ok {
		return cached
	}

	if strings.TrimSpace(token) == "" {
		return Result{CharPhoneCount: []int{0}}
	}

	chars := []rune(token)
	if len(chars) == 0 {
		return Result{Phones: []string{"UNK"}, Tones: []int{0}, CharPhoneCount: []int{1}}
	}

	var phones []string
	var tones []int
	var charCounts []int

	idx := 0
	for idx < len(chars) {
		ch := chars[idx]
		switch {
		case isASCIIAlpha(ch):
			start := idx
			for idx < len(chars) && isASCIIAlpha(chars[idx]) {
				idx++
			}
			segment := string(chars[start:idx])
			segPhones, segTones := g2pAlphaSegment(segment)
			charCounts = append(charCounts, distribute(len(segPhones), len([]rune(segment)))...)
			phones = append(phones, segPhones...)
			tones = append(tones, segTones...)
		case ch >= '0' && ch <= '9':
			mapping := digitMapping(ch)
			phones = append(phones, mapping...)
			for range mapping {
				tones = append(tones, 0)
			}
			charCounts = append(charCounts, len(mapping))
			idx++
		case ch == '\'' || ch == '-':
			phones = append(phones, string(ch))
			tones = append(tones, 0)
			charCounts = append(charCounts, 1)
			idx++
		case isPunctuationChar(ch):
			phones = append(phones, string(ch))
			tones = append(tones, 0)
			charCounts = append(charCounts, 1)
			idx++
		default:
			phones = append(phones, "UNK")
			tones = append(tones, 0)
			charCounts = append(charCounts, 1)
			idx++
		}
	}

	if len(phones) == 0 {
		phones = append(phones, "UNK")
		tones = append(tones, 0)
	}
	if len(charCounts) == 0 {
		charCounts = append(charCounts, len(phones))
	}

	result := Result{Phones: phones, Tones: tones, CharPhoneCount: charCounts}
	wordCache.Add(token, result)
	return result
}

func isASCIIAlpha(ch rune) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func isPunctuationChar(ch rune) bool {
	for _, p := range symbols.Punctuations {
		r := []rune(p)
		if len(r) > 0 && r[0] == ch {
			return true
		}
	}
	return false
}

func g2pAlphaSegment(segment string) ([]string, []int) {
	if entries, ok := cmudict[strings.ToUpper(segment)]; ok {
		var phones []string
		var tones []int
		for _, syllable := range entries {
			for _, ph := range syllable {
				p, t := refinePhoneme(ph)
				phones = append(phones, p)
				tones = append(tones, t)
			}
		}
		if len(phones) > 0 {
			return phones, tones
		}
	}

	if len([]rune(segment)) > 1 && isAllUpper(segment) {
		var phones []string
		var tones []int
		for _, ch := range segment {
			p, t := g2pAlphaSegment(string(ch))
			phones = append(phones, p...)
			tones = append(tones, t...)
		}
		if len(phones) > 0 {
			return phones, tones
		}
	}

	return fallbackAlphaSegment(segment)
}

func isAllUpper(s string) bool {
	for _, ch := range s {
		if ch < 'A' || ch > 'Z' {
			return false
		}
	}
	return true
}

var fallbackLetters = map[rune]string{
	'a': "ey", 'b': "b", 'c': "k", 'd': "d", 'e': "iy", 'f': "f", 'g': "g", 'h': "hh",
	'i': "ay", 'j': "jh", 'k': "k", 'l': "l", 'm': "m", 'n': "n", 'o': "ow", 'p': "p",
	'q': "k", 'r': "r", 's': "s", 't': "t", 'u': "uw", 'v': "v", 'w': "w", 'x': "k",
	'y': "y", 'z': "z",
}

func fallbackAlphaSegment(segment string) ([]string, []int) {
	var phones []string
	var tones []int
	for _, ch := range segment {
		symbol, ok := fallbackLetters[unicode.ToLower(ch)]
		if !ok {
			symbol = "unk"
		}
		phones = append(phones, symbol)
		tones = append(tones, 0)
	}
	return phones, tones
}

// distribute assigns total items across slots as evenly as possible,
// always incrementing the currently-smallest bucket — used to spread a
// multi-letter segment's phone count back across its characters.
func distribute(total, slots int) []int {
	result := make([]int, slots)
	if slots == 0 {
		return result
	}
	for i := 0; i < total; i++ {
		minIdx := 0
		for j := 1; j < slots; j++ {
			if result[j] < result[minIdx] {
				minIdx = j
			}
		}
		result[minIdx]++
	}
	return result
}

func digitMapping(ch rune) []string {
	switch ch {
	case '0':
		return []string{"z", "iy", "r", "ow"}
	case '1':
		return []string{"w", "ah", "n"}
	case '2':
		return []string{"t", "uw"}
	case '3':
		return []string{"th", "r", "iy"}
	case '4':
		return []string{"f", "ao", "r"}
	case '5':
		return []string{"f", "ay", "v"}
	case '6':
		return []string{"s", "ih", "k", "s"}
	case '7':
		return []string{"s", "eh", "v", "ah", "n"}
	case '8':
		return []string{"ey", "t"}
	case '9':
		return []string{"n", "ay", "n"}
	default:
		return []string{"unk"}
	}
}

func loadCMUdict(data string) map[string][]([]string) {
	dict := make(map[string][][]string)
	for _, line := range strings.Split(data, "\n") {
		if strings.HasPrefix(line, ";;;") || strings.TrimSpace(line) == "" {
			continue
		}
		word, rest, ok := strings.Cut(line, "  ")
		if !ok {
			continue
		}
		var syllables [][]string
		for _, syl := range strings.Split(rest, " - ") {
			syllables = append(syllables, strings.Fields(syl))
		}
		dict[word] = syllables
	}
	return dict
}

func refinePhoneme(phn string) (string, int) {
	base := strings.TrimSpace(phn)
	tone := 3
	if base != "" {
		last := base[len(base)-1]
		if last >= '0' && last <= '9' {
			tone = int(last-'0') + 1
			base = base[:len(base)-1]
		}
	}
	symbol := strings.ToLower(base)
	if _, ok := arpaSet[phn]; ok {
		return symbol, tone
	}
	return symbol, 0
}
