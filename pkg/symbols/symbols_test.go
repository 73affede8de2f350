package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadIsFirstSymbol(t *testing.T) {
	require.NotEmpty(t, Symbols)
	assert.Equal(t, Pad, Symbols[0])
	assert.Equal(t, 0, SymbolID[Pad])
}

func TestTrailingSpAndUnk(t *testing.T) {
	require.True(t, len(Symbols) >= 2)
	assert.Equal(t, "SP", Symbols[len(Symbols)-2])
	assert.Equal(t, "UNK", Symbols[len(Symbols)-1])
}

func TestToneCounts(t *testing.T) {
	assert.Equal(t, 6, NumZhTones)
	assert.Equal(t, 2, NumJpTones)
	assert.Equal(t, 4, NumEnTones)
	assert.Equal(t, 12, NumTones)
}

func TestLanguageToneStart(t *testing.T) {
	assert.Equal(t, 0, LanguageToneStart["ZH"])
	assert.Equal(t, 6, LanguageToneStart["JP"])
	assert.Equal(t, 8, LanguageToneStart["EN"])
}

func TestSymbolIDCoversEveryPhone(t *testing.T) {
	for _, s := range ZhSymbols {
		_, ok := SymbolID[s]
		assert.True(t, ok, "missing zh symbol %q", s)
	}
	for _, s := range JpSymbols {
		_, ok := SymbolID[s]
		assert.True(t, ok, "missing jp symbol %q", s)
	}
	for _, s := range EnSymbols {
		_, ok := SymbolID[s]
		assert.True(t, ok, "missing en symbol %q", s)
	}
}

func TestSilPhoneIDsCoverPunctuationAndSpUnk(t *testing.T) {
	assert.Equal(t, len(Punctuations)+2, len(SilPhoneIDs))
	for _, p := range Punctuations {
		id, ok := SymbolID[p]
		require.True(t, ok)
		assert.Contains(t, SilPhoneIDs, id)
	}
	assert.Contains(t, SilPhoneIDs, SymbolID["SP"])
	assert.Contains(t, SilPhoneIDs, SymbolID["UNK"])
}

func TestSymbolsHaveNoDuplicates(t *testing.T) {
	seen := make(map[string]bool, len(Symbols))
	for _, s := range Symbols {
		assert.False(t, seen[s], "duplicate symbol %q", s)
		seen[s] = true
	}
}
