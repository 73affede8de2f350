package zhg2p

import (
	"strings"

	"github.com/yanyiwu/gojieba"

	"github.com/Rorical/sbv2-onnx-server/pkg/sandhi"
)

// Segmenter wraps gojieba the way this package and pkg/sandhi need it:
// full-sentence POS tagging for word boundaries, and single-word
// "search mode" cutting for tone sandhi's sub-word splitting.
type Segmenter struct {
	jb *gojieba.Jieba
}

// NewSegmenter opens a gojieba instance against an already-materialized
// dictionary directory (see internal/assets for how that directory is
// populated).
func NewSegmenter(dictPath, hmmPath, userDictPath, idfPath, stopWordsPath string) *Segmenter {
	jb := gojieba.NewJieba(dictPath, hmmPath, userDictPath, idfPath, stopWordsPath)
	return &Segmenter{jb: jb}
}

// Close releases the underlying CGO jieba instance.
func (s *Segmenter) Close() {
	s.jb.Free()
}

// Tag runs full-sentence segmentation with part-of-speech tagging.
func (s *Segmenter) Tag(sentence string) []sandhi.WordPos {
	tags := s.jb.Tag(sentence)
	out := make([]sandhi.WordPos, 0, len(tags))
	for _, tag := range tags {
		word, pos := splitWordPos(tag)
		out = append(out, sandhi.WordPos{Word: word, Pos: pos})
	}
	return out
}

// CutForSearch implements sandhi.Segmenter.
func (s *Segmenter) CutForSearch(word string) []string {
	return s.jb.CutForSearch(word, false)
}

func splitWordPos(tag string) (string, string) {
	idx := strings.LastIndex(tag, "/")
	if idx < 0 {
		return tag, ""
	}
	return tag[:idx], tag[idx+1:]
}
