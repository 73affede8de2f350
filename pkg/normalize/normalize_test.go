package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTextNumbersAndPunctuation(t *testing.T) {
	assert.Equal(t, "你好,世界!一百二十三abc", NormalizeText("你好，世界！123abc"))
}

func TestReplacePunctuationFoldsTilde(t *testing.T) {
	out := ReplacePunctuation("Hello ~ 世界")
	assert.Contains(t, out, "-")
}

func TestReplacePunctuationStripsUnknownSymbols(t *testing.T) {
	out := ReplacePunctuation("你好★世界")
	assert.NotContains(t, out, "★")
}

func TestReplacePunctuationMapsNasalFillers(t *testing.T) {
	assert.Equal(t, "恩", ReplacePunctuation("嗯"))
	assert.Equal(t, "母", ReplacePunctuation("呣"))
}
