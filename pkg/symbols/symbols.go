// Package symbols defines the fixed phone/language/tone vocabulary shared by
// the G2P engines and the acoustic model. The vocabulary, ordering and id
// assignment must match the acoustic model's training-time symbol table
// exactly: changing anything here silently breaks phone-id alignment.
package symbols

import "sort"

// Pad is the blank/padding symbol inserted at sequence boundaries and,
// when AddBlank is enabled, between every phone.
const Pad = "_"

// Punctuations are literal punctuation symbols kept as standalone phones.
var Punctuations = []string{"!", "?", "…", ",", ".", "'", "-"}

// ZhSymbols are the Mandarin finals/initials recognized by the acoustic model.
var ZhSymbols = []string{
	"E", "En", "a", "ai", "an", "ang", "ao", "b", "c", "ch", "d", "e", "ei", "en", "eng", "er",
	"f", "g", "h", "i", "i0", "ia", "ian", "iang", "iao", "ie", "in", "ing", "iong", "ir", "iu",
	"j", "k", "l", "m", "n", "o", "ong", "ou", "p", "q", "r", "s", "sh", "t", "u", "ua", "uai",
	"uan", "uang", "ui", "un", "uo", "v", "van", "ve", "vn", "w", "x", "y", "z", "zh", "AA", "EE", "OO",
}

// JpSymbols are the Japanese phones recognized by the acoustic model.
var JpSymbols = []string{
	"N", "a", "a:", "b", "by", "ch", "d", "dy", "e", "e:", "f", "g", "gy", "h", "hy", "i", "i:",
	"j", "k", "ky", "m", "my", "n", "ny", "o", "o:", "p", "py", "q", "r", "ry", "s", "sh", "t",
	"ts", "ty", "u", "u:", "w", "y", "z", "zy",
}

// EnSymbols are the English (ARPABET-derived) phones recognized by the
// acoustic model.
var EnSymbols = []string{
	"aa", "ae", "ah", "ao", "aw", "ay", "b", "ch", "d", "dh", "eh", "er", "ey", "f", "g", "hh",
	"ih", "iy", "jh", "k", "l", "m", "n", "ng", "ow", "oy", "p", "r", "s", "sh", "t", "th", "uh",
	"uw", "V", "w", "y", "z", "zh",
}

// Tone counts per language, and their offsets within the shared tone space.
const (
	NumZhTones = 6
	NumJpTones = 2
	NumEnTones = 4
	NumTones   = NumZhTones + NumJpTones + NumEnTones
)

// Language ids, matching the acoustic model's language embedding table.
const (
	LanguageZh = 0
	LanguageJp = 1
	LanguageEn = 2
)

// LanguageID maps a language code to its embedding id.
var LanguageID = map[string]int{
	"ZH": LanguageZh,
	"JP": LanguageJp,
	"EN": LanguageEn,
}

// LanguageToneStart maps a language code to the first tone id in the shared
// tone space reserved for that language.
var LanguageToneStart = map[string]int{
	"ZH": 0,
	"JP": NumZhTones,
	"EN": NumZhTones + NumJpTones,
}

// Symbols is the full, ordered phone vocabulary: pad, then the sorted union
// of the three language phone sets, then punctuation, then SP and UNK.
var Symbols []string

// SymbolID maps a phone string to its index in Symbols.
var SymbolID map[string]int

// SilPhoneIDs holds the ids of every silence-like phone: punctuation, SP
// and UNK.
var SilPhoneIDs []int

func init() {
	seen := make(map[string]struct{})
	var union []string
	for _, set := range [][]string{ZhSymbols, JpSymbols, EnSymbols} {
		for _, s := range set {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			union = append(union, s)
		}
	}
	sort.Strings(union)

	Symbols = make([]string, 0, 1+len(union)+len(Punctuations)+2)
	Symbols = append(Symbols, Pad)
	Symbols = append(Symbols, union...)
	Symbols = append(Symbols, Punctuations...)
	Symbols = append(Symbols, "SP", "UNK")

	SymbolID = make(map[string]int, len(Symbols))
	for i, s := range Symbols {
		SymbolID[s] = i
	}

	silSet := make(map[string]struct{}, len(Punctuations)+2)
	for _, p := range Punctuations {
		silSet[p] = struct{}{}
	}
	silSet["SP"] = struct{}{}
	silSet["UNK"] = struct{}{}

	for i, s := range Symbols {
		if _, ok := silSet[s]; ok {
			SilPhoneIDs = append(SilPhoneIDs, i)
		}
	}
}
