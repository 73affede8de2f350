package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadHyperParametersFillsDefaults(t *testing.T) {
	path := writeTestFile(t, `{"version":"1.0","data":{}}`)
	hps, err := LoadHyperParameters(path)
	require.NoError(t, err)
	assert.Equal(t, 44100, hps.Data.SamplingRate)
	assert.True(t, hps.Data.AddBlank)
	assert.Equal(t, 1, hps.Data.NumStyles)
	assert.Equal(t, map[string]int{"0": 0}, hps.Data.Style2ID)
}

func TestLoadHyperParametersRespectsExplicitAddBlankFalse(t *testing.T) {
	path := writeTestFile(t, `{"version":"1.0","data":{"add_blank":false}}`)
	hps, err := LoadHyperParameters(path)
	require.NoError(t, err)
	assert.False(t, hps.Data.AddBlank)
}

func TestLoadHyperParametersDerivesNumStylesFromStyle2ID(t *testing.T) {
	path := writeTestFile(t, `{"version":"1.0","data":{"style2id":{"Neutral":0,"Happy":1}}}`)
	hps, err := LoadHyperParameters(path)
	require.NoError(t, err)
	assert.Equal(t, 2, hps.Data.NumStyles)
	assert.Equal(t, map[string]int{"Neutral": 0, "Happy": 1}, hps.Data.Style2ID)
}

func TestLoadHyperParametersMissingFile(t *testing.T) {
	_, err := LoadHyperParameters(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
