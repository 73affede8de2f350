package eng2p

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictionaryWord(t *testing.T) {
	result := G2PWord("hello")
	require.NotEmpty(t, result.Phones)
	assert.Equal(t, len([]rune("hello")), len(result.CharPhoneCount))
	sum := 0
	for _, c := range result.CharPhoneCount {
		sum += c
	}
	assert.Equal(t, len(result.Phones), sum)
}

func TestFallbackLetters(t *testing.T) {
	result := G2PWord("xyz")
	assert.Equal(t, len(result.Phones), len(result.Tones))
	sum := 0
	for _, c := range result.CharPhoneCount {
		sum += c
	}
	assert.Equal(t, len(result.Phones), sum)
}

func TestAcronymLettersSplit(t *testing.T) {
	result := G2PWord("CG")
	assert.Equal(t, 2, len(result.CharPhoneCount))
	assert.Equal(t, len(result.Phones), len(result.Tones))
	sum := 0
	for _, c := range result.CharPhoneCount {
		sum += c
	}
	assert.Equal(t, len(result.Phones), sum)
	assert.GreaterOrEqual(t, len(result.Phones), 2)
}

func TestIsEnglishToken(t *testing.T) {
	assert.True(t, IsEnglishToken("Hello"))
	assert.True(t, IsEnglishToken("don't-stop"))
	assert.False(t, IsEnglishToken("你好"))
}

func TestCacheReturnsSameResultForRepeatedToken(t *testing.T) {
	a := G2PWord("style")
	b := G2PWord("style")
	assert.Equal(t, a, b)
}
