package bertfeat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := NewTokenizer("testdata/vocab.txt")
	require.NoError(t, err)
	return tok
}

func TestEncodeWrapsWithClsAndSep(t *testing.T) {
	tok := loadTestTokenizer(t)
	tokens := tok.Encode("你好")
	require.Len(t, tokens, 4)
	assert.Equal(t, tok.clsID, tokens[0].ID)
	assert.Equal(t, tok.sepID, tokens[3].ID)
}

func TestEncodeSplitsCJKCharactersIndividually(t *testing.T) {
	tok := loadTestTokenizer(t)
	tokens := tok.Encode("你好")
	niID, ok := tok.vocab["你"]
	require.True(t, ok)
	haoID, ok := tok.vocab["好"]
	require.True(t, ok)
	assert.Equal(t, niID, tokens[1].ID)
	assert.Equal(t, haoID, tokens[2].ID)
	assert.Equal(t, 0, tokens[1].Start)
	assert.Equal(t, 3, tokens[1].End)
	assert.Equal(t, 3, tokens[2].Start)
	assert.Equal(t, 6, tokens[2].End)
}

func TestEncodeWholeWordVocabHit(t *testing.T) {
	tok := loadTestTokenizer(t)
	tokens := tok.Encode("hello")
	require.Len(t, tokens, 3)
	helloID := tok.vocab["hello"]
	assert.Equal(t, helloID, tokens[1].ID)
}

func TestEncodeUnknownWordFallsBackToUnk(t *testing.T) {
	tok := loadTestTokenizer(t)
	tokens := tok.Encode("xyz")
	require.Len(t, tokens, 3)
	assert.Equal(t, tok.unkID, tokens[1].ID)
}

func TestEncodeLowercasesLatinInput(t *testing.T) {
	tok := loadTestTokenizer(t)
	tokens := tok.Encode("HELLO")
	require.Len(t, tokens, 3)
	helloID := tok.vocab["hello"]
	assert.Equal(t, helloID, tokens[1].ID)
}
