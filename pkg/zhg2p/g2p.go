// Package zhg2p turns normalized Mandarin text into the phone/tone/word2ph
// triple the acoustic model consumes: jieba segmentation and POS tagging,
// per-character pinyin derivation, tone sandhi, syllable-to-phone mapping,
// and English-token delegation for mixed-language input.
package zhg2p

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Rorical/sbv2-onnx-server/pkg/eng2p"
	"github.com/Rorical/sbv2-onnx-server/pkg/sandhi"
	"github.com/Rorical/sbv2-onnx-server/pkg/symbols"
)

// TaggingSegmenter is the jieba surface the G2P engine needs: full-sentence
// segmentation with POS tags, and the "search mode" cut tone sandhi uses to
// find a word's internal boundary.
type TaggingSegmenter interface {
	Tag(sentence string) []sandhi.WordPos
	CutForSearch(word string) []string
}

// Engine is a configured Chinese G2P pipeline. Build one with NewEngine and
// reuse it — the sandhi layer underneath keeps a small memoization cache
// that's worth keeping warm across calls.
type Engine struct {
	seg    TaggingSegmenter
	sandhi *sandhi.ToneSandhi
}

// NewEngine builds a G2P engine backed by seg for segmentation.
func NewEngine(seg TaggingSegmenter) *Engine {
	return &Engine{
		seg:    seg,
		sandhi: sandhi.New(seg, finalsWithTone),
	}
}

// G2P converts normalized text to phones, tones and a word2ph alignment
// vector (length = rune-count(text)+2, summing to len(phones)).
func (e *Engine) G2P(text string) ([]string, []int, []int, error) {
	var phones []string
	var tones []int
	var word2ph []int

	for _, sentence := range SplitSentences(text) {
		p, t, w, err := e.processSentence(sentence)
		if err != nil {
			return nil, nil, nil, err
		}
		phones = append(phones, p...)
		tones = append(tones, t...)
		word2ph = append(word2ph, w...)
	}

	phones = append([]string{symbols.Pad}, phones...)
	phones = append(phones, symbols.Pad)
	tones = append([]int{0}, tones...)
	tones = append(tones, 0)
	word2ph = append([]int{1}, word2ph...)
	word2ph = append(word2ph, 1)

	word2ph = reconcileWord2Ph(word2ph, text, len(phones))
	return phones, tones, word2ph, nil
}

// SplitSentences breaks text into sentence-sized chunks at punctuation
// boundaries, trimming surrounding whitespace off each chunk. Jieba tags
// more reliably sentence-by-sentence than over a whole paragraph.
func SplitSentences(text string) []string {
	var sentences []string
	var buf []rune

	flush := func() {
		s := strings.TrimSpace(string(buf))
		if s != "" {
			sentences = append(sentences, s)
		}
		buf = buf[:0]
	}

	for _, r := range text {
		buf = append(buf, r)
		if isPunctuationRune(r) {
			flush()
		}
	}
	if len(buf) > 0 {
		flush()
	}
	return sentences
}

func (e *Engine) processSentence(sentence string) ([]string, []int, []int, error) {
	tagged := e.seg.Tag(sentence)
	merged := e.sandhi.PreMergeForModify(tagged)

	var phones []string
	var tones []int
	var word2ph []int

	for _, wp := range merged {
		word := wp.Word
		if word == "" {
			continue
		}

		if isAllWhitespace(word) {
			for range []rune(word) {
				word2ph = append(word2ph, 0)
			}
			continue
		}

		if eng2p.IsEnglishToken(word) {
			res := eng2p.G2PWord(word)
			phones = append(phones, res.Phones...)
			tones = append(tones, res.Tones...)
			word2ph = append(word2ph, res.CharPhoneCount...)
			continue
		}

		syllables := getSyllables(word)
		finals := make([]string, len(syllables))
		hasAlpha := false
		for i, s := range syllables {
			finals[i] = s.FinalWithTone
			for _, r := range s.FinalWithTone {
				if unicode.IsLetter(r) {
					hasAlpha = true
				}
			}
		}
		if hasAlpha {
			finals = e.sandhi.ModifiedTone(word, wp.Pos, finals)
			for i := range syllables {
				syllables[i].FinalWithTone = finals[i]
			}
		}

		for _, s := range syllables {
			ph, tone, ok := mapSyllableToPhones(s)
			if !ok {
				return nil, nil, nil, fmt.Errorf("%w: %q", ErrUnknownSyllable, s.Ch)
			}
			phones = append(phones, ph...)
			for range ph {
				tones = append(tones, tone)
			}
			word2ph = append(word2ph, len(ph))
		}
	}

	return phones, tones, word2ph, nil
}

func isAllWhitespace(word string) bool {
	found := false
	for _, r := range word {
		found = true
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return found
}

func isPunctuationRune(r rune) bool {
	for _, p := range symbols.Punctuations {
		pr := []rune(p)
		if len(pr) > 0 && pr[0] == r {
			return true
		}
	}
	return false
}

func isPunctuationChar(ch string) bool {
	r := []rune(ch)
	if len(r) == 0 {
		return false
	}
	return isPunctuationRune(r[0])
}

func mapSyllableToPhones(info syllableInfo) ([]string, int, bool) {
	if info.Initial == info.FinalWithTone {
		return []string{info.Ch}, 0, true
	}

	finalBody := info.FinalWithTone
	tone := 0
	if finalBody != "" {
		last := finalBody[len(finalBody)-1]
		if last >= '0' && last <= '9' {
			tone = int(last - '0')
			finalBody = finalBody[:len(finalBody)-1]
		}
	}
	finalBody = strings.ReplaceAll(finalBody, "ü", "v")

	var spelling string
	if info.Initial == "" {
		spelling = adjustVowelPinyin(finalBody)
	} else {
		spelling = adjustConsonantPinyin(info.Initial, finalBody)
	}
	if spelling == "" {
		spelling = info.Ch
	}

	// After j/q/x/y, pinyin writes ü as a plain "u" (ju, xue, yuan, yun);
	// the phone inventory spells that vowel "v".
	switch info.Initial {
	case "j", "q", "x", "y":
		if strings.HasPrefix(finalBody, "u") {
			finalBody = "v" + finalBody[1:]
		}
	}

	phones, ok := lookupPinyin(spelling, info.Initial, finalBody)
	if !ok {
		if info.Initial == "" && isPunctuationChar(info.Ch) {
			return []string{info.Ch}, 0, true
		}
		return nil, 0, false
	}
	return phones, tone, true
}

func adjustConsonantPinyin(initial, finalBody string) string {
	switch finalBody {
	case "uei":
		finalBody = "ui"
	case "iou":
		finalBody = "iu"
	case "uen":
		finalBody = "un"
	}
	return initial + finalBody
}

func adjustVowelPinyin(finalBody string) string {
	switch finalBody {
	case "ing":
		return "ying"
	case "i":
		return "yi"
	case "in":
		return "yin"
	case "u":
		return "wu"
	}
	if finalBody == "" {
		return finalBody
	}
	r := []rune(finalBody)
	switch r[0] {
	case 'v':
		return "yu" + string(r[1:])
	case 'e':
		return "e" + string(r[1:])
	case 'i':
		return "y" + string(r[1:])
	case 'u':
		return "w" + string(r[1:])
	default:
		return finalBody
	}
}
