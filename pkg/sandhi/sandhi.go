// Package sandhi implements Mandarin tone sandhi: the sentence-level word
// merges and per-word tone rewrites (不/一 sandhi, neutral tone, third-tone
// chains) a Chinese G2P pipeline must apply before mapping syllables to
// phones.
package sandhi

import (
	"strings"
	"sync"
	"unicode"
)

// WordPos is a single segmented word with its jieba part-of-speech tag.
type WordPos struct {
	Word string
	Pos  string
}

// Segmenter is the subset of jieba's API tone sandhi needs: splitting a
// single word into its "search mode" sub-tokens, used to decide where a
// multi-character word's internal boundary falls.
type Segmenter interface {
	CutForSearch(word string) []string
}

// ToneSandhi applies Mandarin tone sandhi rules to a word's finals (the
// tone-bearing part of each syllable, e.g. "i3").
type ToneSandhi struct {
	seg      Segmenter
	finalsOf func(word string) []string

	mu    sync.Mutex
	cache map[string][]string
}

// New builds a ToneSandhi. finalsOf must return one tone-3 final per
// character of word (used only to test whether a sub-word is "all third
// tone" before deciding whether to merge it with its neighbor).
func New(seg Segmenter, finalsOf func(word string) []string) *ToneSandhi {
	return &ToneSandhi{
		seg:      seg,
		finalsOf: finalsOf,
		cache:    make(map[string][]string),
	}
}

func (t *ToneSandhi) finalsTone3ForWord(word string) []string {
	t.mu.Lock()
	if cached, ok := t.cache[word]; ok {
		t.mu.Unlock()
		return cached
	}
	t.mu.Unlock()

	finals := t.finalsOf(word)

	t.mu.Lock()
	t.cache[word] = finals
	t.mu.Unlock()
	return finals
}

// ModifiedTone runs the full per-word sandhi pipeline: 不-sandhi, 一-sandhi,
// neutral-tone sandhi, then third-tone sandhi.
func (t *ToneSandhi) ModifiedTone(word, pos string, finals []string) []string {
	finals = t.buSandhi(word, finals)
	finals = t.yiSandhi(word, finals)
	finals = t.neutralSandhi(word, pos, finals)
	finals = t.threeSandhi(word, finals)
	return finals
}

// PreMergeForModify runs the sentence-level word merges that must happen
// before per-word sandhi: 不-merge, 一-merge, reduplication-merge, two
// variants of continuous-third-tone merge, then 儿-merge.
func (t *ToneSandhi) PreMergeForModify(seg []WordPos) []WordPos {
	seg = mergeBu(seg)
	seg = mergeYi(seg)
	seg = mergeReduplication(seg)
	seg = t.mergeContinuousThreeTones(seg)
	seg = t.mergeContinuousThreeTones2(seg)
	seg = mergeEr(seg)
	return seg
}

const yuqiciChars = "吧呢啊呐噻嘛吖嗨呐哦哒额滴哩哟喽啰耶喔诶"
const deDeDiChars = "的地得"
const menZiChars = "们子"
const shangxialiChars = "上下里"
const laiquChars = "来去"
const laiquPrevChars = "上下进出回过起开"
const geCondPrevChars = "几有两半多各整每做是"

func (t *ToneSandhi) neutralSandhi(word, pos string, finals []string) []string {
	chars := []rune(word)
	n := len(chars)

	if word != "" {
		if _, not := mustNotNeutralToneWords[word]; !not {
			if len(pos) > 0 && strings.ContainsRune("nva", rune(pos[0])) {
				for j := 1; j < n; j++ {
					if chars[j] == chars[j-1] && j < len(finals) {
						finals[j] = setTone(finals[j], '5')
					}
				}
			}
		}
	}

	if n >= 1 {
		last := chars[n-1]
		_, notWord := mustNotNeutralToneWords[word]

		condYuqici := strings.ContainsRune(yuqiciChars, last)
		condDeDeDi := strings.ContainsRune(deDeDiChars, last)
		condMenZi := n > 1 && strings.ContainsRune(menZiChars, last) && (pos == "r" || pos == "n") && !notWord
		condShangxiali := n > 1 && strings.ContainsRune(shangxialiChars, last) && (pos == "s" || pos == "l" || pos == "f")
		condLaiqu := false
		if n > 1 {
			last2 := chars[n-2]
			condLaiqu = strings.ContainsRune(laiquChars, last) && strings.ContainsRune(laiquPrevChars, last2)
		}

		if condYuqici || condDeDeDi || condMenZi || condShangxiali || condLaiqu {
			if len(finals) > 0 {
				finals[len(finals)-1] = setTone(finals[len(finals)-1], '5')
			}
		} else {
			geIdx := -1
			for i, c := range chars {
				if c == '个' {
					geIdx = i
					break
				}
			}
			geCond := false
			if geIdx >= 1 {
				prev := chars[geIdx-1]
				geCond = unicode.IsDigit(prev) || strings.ContainsRune(geCondPrevChars, prev)
			}

			if (geIdx != -1 && geCond) || word == "个" {
				if geIdx != -1 && geIdx < len(finals) {
					finals[geIdx] = setTone(finals[geIdx], '5')
				}
			} else {
				_, must := mustNeutralToneWords[word]
				if !must && n >= 2 {
					last2 := string(chars[n-2:])
					_, must = mustNeutralToneWords[last2]
				}
				if must {
					if len(finals) > 0 {
						finals[len(finals)-1] = setTone(finals[len(finals)-1], '5')
					}
				}
			}
		}
	}

	wordList := t.splitWord(word)
	if len(wordList) == 2 {
		firstLen := len([]rune(wordList[0]))
		if firstLen <= len(finals) {
			finalsList := [][]string{
				append([]string{}, finals[:firstLen]...),
				append([]string{}, finals[firstLen:]...),
			}
			for i := 0; i < 2; i++ {
				subWord := wordList[i]
				subChars := []rune(subWord)
				_, must := mustNeutralToneWords[subWord]
				if !must && len(subChars) >= 2 {
					last2 := string(subChars[len(subChars)-2:])
					_, must = mustNeutralToneWords[last2]
				}
				if must && len(finalsList[i]) > 0 {
					last := len(finalsList[i]) - 1
					finalsList[i][last] = setTone(finalsList[i][last], '5')
				}
			}
			finals = append(append([]string{}, finalsList[0]...), finalsList[1]...)
		}
	}

	return finals
}

func (t *ToneSandhi) buSandhi(word string, finals []string) []string {
	chars := []rune(word)
	n := len(chars)

	if n == 3 && chars[1] == '不' {
		if len(finals) > 1 {
			finals[1] = setTone(finals[1], '5')
		}
		return finals
	}

	for i := 0; i < n; i++ {
		if chars[i] == '不' && i+1 < n && i+1 < len(finals) {
			if toneOf(finals[i+1]) == '4' && i < len(finals) {
				finals[i] = setTone(finals[i], '2')
			}
		}
	}
	return finals
}

func (t *ToneSandhi) yiSandhi(word string, finals []string) []string {
	chars := []rune(word)
	n := len(chars)

	if strings.ContainsRune(word, '一') {
		allDigits := true
		for _, c := range chars {
			if c == '一' {
				continue
			}
			if !unicode.IsDigit(c) {
				allDigits = false
				break
			}
		}
		if allDigits {
			return finals
		}
	}

	if n == 3 && chars[1] == '一' && chars[0] == chars[2] {
		if len(finals) > 1 {
			finals[1] = setTone(finals[1], '5')
		}
		return finals
	}

	if strings.HasPrefix(word, "第一") {
		if len(finals) >= 2 {
			finals[1] = setTone(finals[1], '1')
		}
		return finals
	}

	for i := 0; i < n; i++ {
		if chars[i] == '一' && i+1 < n && i+1 < len(finals) && i < len(finals) {
			nextTone := toneOf(finals[i+1])
			if nextTone == '4' {
				finals[i] = setTone(finals[i], '2')
			} else {
				nextChar := chars[i+1]
				if !strings.ContainsRune(punc, nextChar) {
					finals[i] = setTone(finals[i], '4')
				}
			}
		}
	}
	return finals
}

func (t *ToneSandhi) splitWord(word string) []string {
	seg := t.seg.CutForSearch(word)
	if len(seg) == 0 {
		return []string{word, ""}
	}

	wordList := append([]string{}, seg...)
	sortByRuneCountStable(wordList)

	firstSubword := wordList[0]
	idx := strings.Index(word, firstSubword)
	switch {
	case idx == 0:
		return []string{firstSubword, word[len(firstSubword):]}
	case idx > 0:
		return []string{word[:len(word)-len(firstSubword)], firstSubword}
	default:
		return []string{word, ""}
	}
}

func sortByRuneCountStable(ss []string) {
	// insertion sort: stable and the lists here are always tiny.
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && len([]rune(ss[j-1])) > len([]rune(ss[j])); j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}

func (t *ToneSandhi) threeSandhi(word string, finals []string) []string {
	n := len([]rune(word))

	switch {
	case n == 2 && allToneThree(finals):
		if len(finals) > 0 {
			finals[0] = setTone(finals[0], '2')
		}
	case n == 3:
		wordList := t.splitWord(word)
		if allToneThree(finals) {
			firstLen := len([]rune(wordList[0]))
			if firstLen == 2 {
				if len(finals) >= 2 {
					finals[0] = setTone(finals[0], '2')
					finals[1] = setTone(finals[1], '2')
				}
			} else if firstLen == 1 {
				if len(finals) >= 2 {
					finals[1] = setTone(finals[1], '2')
				}
			}
		} else {
			firstLen := len([]rune(wordList[0]))
			if firstLen < len(finals) {
				finalsList := [][]string{
					append([]string{}, finals[:firstLen]...),
					append([]string{}, finals[firstLen:]...),
				}
				for i := range finalsList {
					sub := finalsList[i]
					if allToneThree(sub) && len(sub) == 2 {
						sub[0] = setTone(sub[0], '2')
					} else if i == 1 && !allToneThree(sub) && len(sub) > 0 &&
						toneOf(sub[0]) == '3' && len(finalsList[0]) > 0 &&
						toneOf(finalsList[0][len(finalsList[0])-1]) == '3' {
						last0 := len(finalsList[0]) - 1
						finalsList[0][last0] = setTone(finalsList[0][last0], '2')
					}
				}
				finals = append(append([]string{}, finalsList[0]...), finalsList[1]...)
			}
		}
	case n == 4:
		if len(finals) == 4 {
			first := append([]string{}, finals[0:2]...)
			second := append([]string{}, finals[2:4]...)
			if allToneThree(first) {
				first[0] = setTone(first[0], '2')
			}
			if allToneThree(second) {
				second[0] = setTone(second[0], '2')
			}
			finals = append(first, second...)
		}
	}

	return finals
}

func allToneThree(finals []string) bool {
	for _, f := range finals {
		if toneOf(f) != '3' {
			return false
		}
	}
	return true
}

func mergeBu(seg []WordPos) []WordPos {
	var newSeg []WordPos
	lastWord := ""

	for _, wp := range seg {
		w := wp.Word
		if lastWord == "不" {
			w = lastWord + w
		}
		if w != "不" {
			newSeg = append(newSeg, WordPos{Word: w, Pos: wp.Pos})
		}
		lastWord = w
	}

	if lastWord == "不" {
		newSeg = append(newSeg, WordPos{Word: lastWord, Pos: "d"})
	}
	return newSeg
}

func mergeYi(seg []WordPos) []WordPos {
	var newSeg []WordPos
	i := 0
	for i < len(seg) {
		word, pos := seg[i].Word, seg[i].Pos
		if i >= 1 && i+1 < len(seg) && word == "一" && seg[i-1].Word == seg[i+1].Word && seg[i-1].Pos == "v" {
			if len(newSeg) > 0 {
				last := &newSeg[len(newSeg)-1]
				last.Word = last.Word + "一" + last.Word
			}
			i += 2
		} else if i >= 2 && seg[i-1].Word == "一" && seg[i-2].Word == word && pos == "v" {
			i++
		} else {
			newSeg = append(newSeg, WordPos{Word: word, Pos: pos})
			i++
		}
	}

	var seg2 []WordPos
	for _, wp := range newSeg {
		if wp.Word != "" {
			seg2 = append(seg2, wp)
		}
	}

	var result []WordPos
	for _, wp := range seg2 {
		if len(result) > 0 && result[len(result)-1].Word == "一" {
			result[len(result)-1].Word += wp.Word
			continue
		}
		result = append(result, wp)
	}
	return result
}

func (t *ToneSandhi) mergeContinuousThreeTones(seg []WordPos) []WordPos {
	subFinalsList := make([][]string, len(seg))
	for i, wp := range seg {
		subFinalsList[i] = t.finalsTone3ForWord(wp.Word)
	}

	var newSeg []WordPos
	mergeLast := make([]bool, len(seg))

	for i, wp := range seg {
		if i >= 1 && allToneThree(subFinalsList[i-1]) && allToneThree(subFinalsList[i]) && !mergeLast[i-1] && len(newSeg) > 0 {
			last := &newSeg[len(newSeg)-1]
			if !isReduplication(last.Word) && len([]rune(last.Word))+len([]rune(wp.Word)) <= 3 {
				last.Word += wp.Word
				mergeLast[i] = true
				continue
			}
		}
		newSeg = append(newSeg, wp)
	}
	return newSeg
}

func (t *ToneSandhi) mergeContinuousThreeTones2(seg []WordPos) []WordPos {
	subFinalsList := make([][]string, len(seg))
	for i, wp := range seg {
		subFinalsList[i] = t.finalsTone3ForWord(wp.Word)
	}

	var newSeg []WordPos
	mergeLast := make([]bool, len(seg))

	for i, wp := range seg {
		lastTone := byte('0')
		if i >= 1 && len(subFinalsList[i-1]) > 0 {
			lastTone = toneOf(subFinalsList[i-1][len(subFinalsList[i-1])-1])
		}
		firstTone := byte('0')
		if len(subFinalsList[i]) > 0 {
			firstTone = toneOf(subFinalsList[i][0])
		}

		if i >= 1 && lastTone == '3' && firstTone == '3' && !mergeLast[i-1] && len(newSeg) > 0 {
			last := &newSeg[len(newSeg)-1]
			if !isReduplication(last.Word) && len([]rune(last.Word))+len([]rune(wp.Word)) <= 3 {
				last.Word += wp.Word
				mergeLast[i] = true
				continue
			}
		}
		newSeg = append(newSeg, wp)
	}
	return newSeg
}

func isReduplication(word string) bool {
	chars := []rune(word)
	return len(chars) == 2 && chars[0] == chars[1]
}

func mergeEr(seg []WordPos) []WordPos {
	var newSeg []WordPos
	for i, wp := range seg {
		if i >= 1 && wp.Word == "儿" && len(newSeg) > 0 && newSeg[len(newSeg)-1].Word != "#" {
			newSeg[len(newSeg)-1].Word += "儿"
		} else {
			newSeg = append(newSeg, wp)
		}
	}
	return newSeg
}

func mergeReduplication(seg []WordPos) []WordPos {
	var newSeg []WordPos
	for _, wp := range seg {
		if len(newSeg) > 0 && newSeg[len(newSeg)-1].Word == wp.Word {
			newSeg[len(newSeg)-1].Word += wp.Word
			continue
		}
		newSeg = append(newSeg, wp)
	}
	return newSeg
}

func toneOf(syllable string) byte {
	if syllable == "" {
		return '5'
	}
	return syllable[len(syllable)-1]
}

func setTone(syllable string, tone byte) string {
	if syllable != "" {
		last := syllable[len(syllable)-1]
		if last >= '0' && last <= '9' {
			return syllable[:len(syllable)-1] + string(tone)
		}
	}
	return syllable + string(tone)
}
