package infer

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var npyMagic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y'}

func writeTestNpy(t *testing.T, path string, values [][]float32) {
	t.Helper()
	rows := len(values)
	cols := 0
	if rows > 0 {
		cols = len(values[0])
	}
	header := "{'descr': '<f4', 'fortran_order': False, 'shape': (" +
		itoa(rows) + ", " + itoa(cols) + "), }\n"

	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.WriteByte(1)
	buf.WriteByte(0)
	lenBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(lenBytes, uint16(len(header)))
	buf.Write(lenBytes)
	buf.WriteString(header)

	for _, row := range values {
		for _, v := range row {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
			buf.Write(b[:])
		}
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func writeTestConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDerivesDefaultStyleAndSpeakerIDs(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir, `{"version":"1.0","data":{
		"sampling_rate": 48000,
		"style2id": {"Neutral": 0, "Happy": 1},
		"spk2id": {"Alice": 2, "Bob": 0}
	}}`)
	styleVecPath := filepath.Join(dir, "style_vectors.npy")
	writeTestNpy(t, styleVecPath, [][]float32{{0, 0}, {1, 1}})

	p, err := Load(configPath, styleVecPath, nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 48000, p.SampleRate())
	assert.Equal(t, 0, p.defaultStyleID)
	assert.Equal(t, 0, p.defaultSpeakerID)
	assert.ElementsMatch(t, []string{"Neutral", "Happy"}, p.AvailableStyles())
	assert.ElementsMatch(t, []string{"Bob", "Alice"}, p.AvailableSpeakers())

	id, ok := p.StyleID("Happy")
	assert.True(t, ok)
	assert.Equal(t, 1, id)

	id, ok = p.SpeakerID("Alice")
	assert.True(t, ok)
	assert.Equal(t, 2, id)

	_, ok = p.SpeakerID("Carol")
	assert.False(t, ok)
}

func TestLoadFallsBackToLowestSpeakerIDWhenDefaultNameAbsent(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir, `{"version":"1.0","data":{
		"spk2id": {"Zed": 7, "Ann": 3}
	}}`)
	styleVecPath := filepath.Join(dir, "style_vectors.npy")
	writeTestNpy(t, styleVecPath, [][]float32{{0}, {1}})

	p, err := Load(configPath, styleVecPath, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, p.defaultSpeakerID)
}

func TestLoadSynthesizesStyle2IDWhenAbsentFromConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir, `{"version":"1.0","data":{"num_styles": 3}}`)
	styleVecPath := filepath.Join(dir, "style_vectors.npy")
	writeTestNpy(t, styleVecPath, [][]float32{{0}, {1}, {2}})

	p, err := Load(configPath, styleVecPath, nil, nil, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"0", "1", "2"}, p.AvailableStyles())
}

func TestLoadRejectsEmptyStyleVectors(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir, `{"version":"1.0","data":{}}`)
	styleVecPath := filepath.Join(dir, "style_vectors.npy")
	writeTestNpy(t, styleVecPath, nil)

	_, err := Load(configPath, styleVecPath, nil, nil, nil)
	assert.Error(t, err)
}

func TestLoadRejectsMissingConfig(t *testing.T) {
	dir := t.TempDir()
	styleVecPath := filepath.Join(dir, "style_vectors.npy")
	writeTestNpy(t, styleVecPath, [][]float32{{0}})

	_, err := Load(filepath.Join(dir, "missing.json"), styleVecPath, nil, nil, nil)
	assert.Error(t, err)
}

func newTestProject(t *testing.T) *Project {
	t.Helper()
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir, `{"version":"1.0","data":{
		"style2id": {"Neutral": 0, "Happy": 1}
	}}`)
	styleVecPath := filepath.Join(dir, "style_vectors.npy")
	writeTestNpy(t, styleVecPath, [][]float32{{0, 0, 0}, {2, 4, 6}})

	p, err := Load(configPath, styleVecPath, nil, nil, nil)
	require.NoError(t, err)
	return p
}

func TestStyleVectorInterpolatesTowardTarget(t *testing.T) {
	p := newTestProject(t)

	full, err := p.styleVector("Happy", 1.0)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 4, 6}, full)

	half, err := p.styleVector("Happy", 0.5)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, half)

	mean, err := p.styleVector("", 1.0)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0}, mean)
}

func TestStyleVectorRejectsUnknownStyle(t *testing.T) {
	p := newTestProject(t)
	_, err := p.styleVector("Angry", 1.0)
	assert.Error(t, err)
}

func TestIntersperseWrapsAndSeparatesEveryValue(t *testing.T) {
	got := intersperse([]int64{1, 2, 3}, 0)
	assert.Equal(t, []int64{0, 1, 0, 2, 0, 3, 0}, got)
}

func TestIntersperseHandlesEmptyInput(t *testing.T) {
	got := intersperse(nil, 9)
	assert.Equal(t, []int64{9}, got)
}

func TestDoubleWord2PhMatchesInterspersedPhoneCount(t *testing.T) {
	word2ph := []int{2, 1, 3}
	phoneCount := 0
	for _, n := range word2ph {
		phoneCount += n
	}
	phones := make([]int64, phoneCount)
	interspersed := intersperse(phones, 0)

	got := doubleWord2Ph(word2ph)
	sum := 0
	for _, n := range got {
		sum += n
	}
	assert.Equal(t, len(interspersed), sum)
}

func TestDoubleWord2PhDoublesAndBumpsFirstEntry(t *testing.T) {
	got := doubleWord2Ph([]int{2, 1, 3})
	assert.Equal(t, []int{5, 2, 6}, got)
}

func TestDoubleWord2PhHandlesEmptyInput(t *testing.T) {
	got := doubleWord2Ph(nil)
	assert.Equal(t, []int{}, got)
}
