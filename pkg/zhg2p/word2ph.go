package zhg2p

import "unicode"

// reconcileWord2Ph forces word2ph (already prefixed/suffixed with the
// sentinel pad counts) to have exactly runeCount(text)+2 entries and to sum
// to phoneCount, the two invariants the BERT aligner and tensor assembler
// both depend on. Mismatches happen at sentence boundaries: SplitSentences
// trims whitespace off each chunk before tagging it, so a run of
// whitespace between sentences never gets a word2ph entry from
// processSentence and has to be patched back in here.
func reconcileWord2Ph(word2ph []int, text string, phoneCount int) []int {
	runes := []rune(text)
	target := len(runes) + 2

	switch {
	case len(word2ph) < target:
		for len(word2ph) < target {
			word2ph = append(word2ph, 0)
		}
	case len(word2ph) > target:
		word2ph = word2ph[:target]
	}

	if len(word2ph) > 0 {
		word2ph[0] = 1
	}
	if len(word2ph) > 1 {
		word2ph[len(word2ph)-1] = 1
	}

	for i, r := range runes {
		if unicode.IsSpace(r) {
			word2ph[i+1] = 0
		}
	}

	sum := 0
	for _, v := range word2ph {
		sum += v
	}

	last := len(word2ph) - 1
	for sum != phoneCount && last > 0 {
		if sum < phoneCount {
			progressed := false
			for i := 1; i < last && sum < phoneCount; i++ {
				if word2ph[i] != 0 {
					word2ph[i]++
					sum++
					progressed = true
				}
			}
			if !progressed {
				word2ph[last] += phoneCount - sum
				sum = phoneCount
			}
		} else {
			progressed := false
			for i := last - 1; i >= 1 && sum > phoneCount; i-- {
				if word2ph[i] != 0 {
					dec := word2ph[i]
					if need := sum - phoneCount; dec > need {
						dec = need
					}
					word2ph[i] -= dec
					sum -= dec
					progressed = true
				}
			}
			if !progressed {
				dec := word2ph[last]
				need := sum - phoneCount
				if dec > need {
					dec = need
				}
				word2ph[last] -= dec
				sum -= dec
				break
			}
		}
	}

	if len(word2ph) > 0 {
		word2ph[0] = 1
	}
	if last > 0 && word2ph[last] == 0 {
		word2ph[last] = 1
	}

	return word2ph
}
