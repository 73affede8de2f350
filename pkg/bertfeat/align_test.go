package bertfeat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignWord2PhMatchesCharacterSpans(t *testing.T) {
	tok := loadTestTokenizer(t)
	tokens := tok.Encode("你好")

	aligned, err := alignWord2Ph("你好", []int{1, 2, 2, 1}, tokens)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 2, 1}, aligned)
}

func TestAlignWord2PhRejectsLengthMismatch(t *testing.T) {
	tok := loadTestTokenizer(t)
	tokens := tok.Encode("你好")

	_, err := alignWord2Ph("你好", []int{1, 2, 1}, tokens)
	assert.Error(t, err)
}

func TestAlignWord2PhSumsPreserved(t *testing.T) {
	tok := loadTestTokenizer(t)
	tokens := tok.Encode("你好")

	word2ph := []int{1, 2, 2, 1}
	aligned, err := alignWord2Ph("你好", word2ph, tokens)
	require.NoError(t, err)

	var wantSum, gotSum int
	for _, c := range word2ph {
		wantSum += c
	}
	for _, c := range aligned {
		gotSum += c
	}
	assert.Equal(t, wantSum, gotSum)
}
