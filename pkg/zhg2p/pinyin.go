package zhg2p

import (
	"strings"

	"github.com/mozillazg/go-pinyin"
)

// pinyinInitials lists recognized syllable-initial spellings, longest and
// most specific first, mirroring the order the original decomposition
// checks them in (so e.g. "zh" is tried before "z").
var pinyinInitials = []string{
	"zh", "ch", "sh", "b", "p", "m", "f", "d", "t", "n", "l", "g", "k", "h",
	"j", "q", "x", "r", "z", "c", "s", "y", "w",
}

var plainArgs = pinyin.Args{Style: pinyin.Normal, Heteronym: false}
var tone3Args = pinyin.Args{Style: pinyin.Tone3, Heteronym: false}

// syllableInfo is one character's pinyin decomposition: its initial
// spelling (possibly empty) and its final spelling with a trailing tone
// digit (e.g. "ao3"). For characters with no pinyin reading, Initial and
// FinalWithTone are both just the character itself.
type syllableInfo struct {
	Ch            string
	Initial       string
	FinalWithTone string
}

// getSyllables decomposes every character of word into its pinyin
// initial/final, falling back to treating the character itself as both
// when it has no pinyin reading (punctuation, Latin letters, etc).
func getSyllables(word string) []syllableInfo {
	chars := []rune(word)
	out := make([]syllableInfo, 0, len(chars))

	for _, c := range chars {
		ch := string(c)
		plain := pinyin.SinglePinyin(c, plainArgs)
		withTone := pinyin.SinglePinyin(c, tone3Args)

		if len(plain) == 0 || len(withTone) == 0 {
			out = append(out, syllableInfo{Ch: ch, Initial: ch, FinalWithTone: ch})
			continue
		}

		initial, finals := splitInitialAndFinal(plain[0], withTone[0], ch)
		out = append(out, syllableInfo{Ch: ch, Initial: initial, FinalWithTone: finals})
	}
	return out
}

// finalsWithTone returns just the FinalWithTone component of every
// character of word, the form tone sandhi operates on.
func finalsWithTone(word string) []string {
	syllables := getSyllables(word)
	out := make([]string, len(syllables))
	for i, s := range syllables {
		out[i] = s.FinalWithTone
	}
	return out
}

func splitInitialAndFinal(plain, withToneEnd, fallback string) (string, string) {
	initial := extractInitial(plain)
	var finals string
	if len(initial) <= len(withToneEnd) {
		finals = withToneEnd[len(initial):]
	}
	if finals == "" {
		finals = fallback
	}
	return initial, finals
}

func extractInitial(plain string) string {
	for _, p := range pinyinInitials {
		if strings.HasPrefix(plain, p) {
			return p
		}
	}
	return ""
}
