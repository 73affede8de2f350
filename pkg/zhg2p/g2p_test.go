package zhg2p

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/sbv2-onnx-server/pkg/sandhi"
)

// fakeSegmenter stubs jieba with a fixed lookup table for the sentences
// these tests exercise; CutForSearch falls back to treating the whole
// word as a single sub-token, which is what tone sandhi's word-splitting
// degrades to for short, undictionaried inputs.
type fakeSegmenter struct {
	tags map[string][]sandhi.WordPos
}

func (f *fakeSegmenter) Tag(sentence string) []sandhi.WordPos {
	if v, ok := f.tags[sentence]; ok {
		return v
	}
	return []sandhi.WordPos{{Word: sentence, Pos: "x"}}
}

func (f *fakeSegmenter) CutForSearch(word string) []string {
	return []string{word}
}

func newTestEngine() *Engine {
	seg := &fakeSegmenter{tags: map[string][]sandhi.WordPos{
		"你":       {{Word: "你", Pos: "r"}},
		"你好":      {{Word: "你好", Pos: "v"}},
		"Hello世界": {{Word: "Hello", Pos: "eng"}, {Word: "世界", Pos: "n"}},
	}}
	return NewEngine(seg)
}

func TestG2PSingleCharacter(t *testing.T) {
	e := newTestEngine()
	phones, tones, word2ph, err := e.G2P("你")
	require.NoError(t, err)
	assert.Equal(t, []string{"_", "n", "i", "_"}, phones)
	assert.Equal(t, []int{0, 3, 3, 0}, tones)
	assert.Equal(t, []int{1, 2, 1}, word2ph)
}

func TestG2PAppliesToneSandhi(t *testing.T) {
	e := newTestEngine()
	phones, tones, word2ph, err := e.G2P("你好")
	require.NoError(t, err)
	assert.Equal(t, []string{"_", "n", "i", "h", "ao", "_"}, phones)
	assert.Equal(t, []int{0, 2, 2, 3, 3, 0}, tones)
	assert.Equal(t, []int{1, 2, 2, 1}, word2ph)
}

func TestG2PMixedLanguage(t *testing.T) {
	e := newTestEngine()
	phones, tones, word2ph, err := e.G2P("Hello世界")
	require.NoError(t, err)
	assert.Contains(t, phones, "hh")
	assert.Contains(t, phones, "sh")
	assert.Equal(t, len(phones), len(tones))

	sum := 0
	for _, c := range word2ph {
		sum += c
	}
	assert.Equal(t, len(phones), sum)
	assert.Equal(t, len([]rune("Hello世界"))+2, len(word2ph))
}

func TestFinalsWithToneExtraction(t *testing.T) {
	assert.Equal(t, []string{"u4", "ui4"}, finalsWithTone("不对"))
}

func TestSplitSentencesKeepsTrailingPunctuation(t *testing.T) {
	sentences := SplitSentences("你好,世界!")
	require.Len(t, sentences, 2)
	assert.Equal(t, "你好,", sentences[0])
	assert.Equal(t, "世界!", sentences[1])
}
