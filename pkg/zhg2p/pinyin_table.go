package zhg2p

import "github.com/Rorical/sbv2-onnx-server/pkg/symbols"

// PinyinEntry is the phones+tone a single pinyin syllable (initial+final
// spelling, no tone digit) decomposes into.
type PinyinEntry struct {
	Phones []string
	Tone   int
}

// pinyinTable holds the irregular syllables that don't decompose as a
// simple [initial, final] pair — the handful of "buzzy vowel" syllables
// where the spelled final ("i") does not correspond to the phonetic final
// ZhSymbols actually uses ("i0"/"ir"). This is the same special-case set
// opencpop's strict pinyin-to-phone table carries for these syllables;
// everything else is derived on the fly in lookupPinyin.
var pinyinTable = map[string][]string{
	"zhi": {"zh", "ir"},
	"chi": {"ch", "ir"},
	"shi": {"sh", "ir"},
	"ri":  {"r", "ir"},
	"zi":  {"z", "i0"},
	"ci":  {"c", "i0"},
	"si":  {"s", "i0"},
	"yi":  {"y", "i"},
	"wu":  {"w", "u"},
	"yu":  {"y", "v"},
}

// overrideTable, when non-nil, takes priority over both pinyinTable and the
// generic decomposition. Populated by LoadPinyinTable when a real asset
// file is available at startup.
var overrideTable map[string][]string

// LoadPinyinTable installs an externally supplied pinyin-to-phones table,
// replacing the built-in irregular-syllable table for any syllable it
// covers. entries maps a bare pinyin spelling (no tone digit) to a
// whitespace-free list of phone symbols, e.g. "dui" -> []string{"d","ui"}.
func LoadPinyinTable(entries map[string][]string) {
	overrideTable = entries
}

var zhSymbolSet = buildZhSymbolSet()

func buildZhSymbolSet() map[string]struct{} {
	set := make(map[string]struct{}, len(symbols.ZhSymbols))
	for _, s := range symbols.ZhSymbols {
		set[s] = struct{}{}
	}
	return set
}

// lookupPinyin resolves a bare pinyin spelling (initial+final, no tone
// digit) to its phone decomposition. initial is the already-extracted
// initial spelling (possibly empty); finalBody is the adjusted final
// spelling. Returns ok=false when the syllable cannot be decomposed.
func lookupPinyin(spelling, initial, finalBody string) ([]string, bool) {
	if overrideTable != nil {
		if phones, ok := overrideTable[spelling]; ok {
			return phones, true
		}
	}
	if phones, ok := pinyinTable[spelling]; ok {
		return phones, true
	}

	if _, ok := zhSymbolSet[finalBody]; !ok {
		return nil, false
	}
	if initial == "" {
		return []string{finalBody}, true
	}
	if _, ok := zhSymbolSet[initial]; !ok {
		return nil, false
	}
	return []string{initial, finalBody}, true
}
