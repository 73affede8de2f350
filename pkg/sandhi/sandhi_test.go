package sandhi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSegmenter stubs jieba's CutForSearch with a fixed lookup table for
// the words exercised by these tests.
type fakeSegmenter struct {
	table map[string][]string
}

func (f *fakeSegmenter) CutForSearch(word string) []string {
	if v, ok := f.table[word]; ok {
		return v
	}
	return []string{word}
}

func newTestSandhi() *ToneSandhi {
	seg := &fakeSegmenter{table: map[string][]string{
		"不对": {"不", "对"},
		"你好": {"你好"},
	}}
	finalsOf := func(word string) []string {
		switch word {
		case "不对":
			return []string{"u4", "ui4"}
		case "你好":
			return []string{"i3", "ao3"}
		default:
			out := make([]string, len([]rune(word)))
			for i := range out {
				out[i] = "a0"
			}
			return out
		}
	}
	return New(seg, finalsOf)
}

func TestBuBeforeFourthToneBecomesSecond(t *testing.T) {
	s := newTestSandhi()
	finals := []string{"u4", "ui4"}
	result := s.ModifiedTone("不对", "v", finals)
	require.Len(t, result, 2)
	assert.Equal(t, []string{"u2", "ui4"}, result)
}

func TestThirdTonePairAppliesSandhi(t *testing.T) {
	s := newTestSandhi()
	finals := []string{"i3", "ao3"}
	result := s.ModifiedTone("你好", "v", finals)
	require.Len(t, result, 2)
	assert.Equal(t, []string{"i2", "ao3"}, result)
}

func TestSetToneReplacesTrailingDigit(t *testing.T) {
	assert.Equal(t, "i2", setTone("i3", '2'))
	assert.Equal(t, "i5", setTone("i", '5'))
}

func TestToneOfReadsTrailingDigit(t *testing.T) {
	assert.Equal(t, byte('3'), toneOf("ao3"))
	assert.Equal(t, byte('5'), toneOf(""))
}
