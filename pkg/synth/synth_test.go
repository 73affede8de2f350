package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/sbv2-onnx-server/pkg/infer"
)

type fakeProject struct {
	speakers map[string]int
	styles   map[string]int
	lastReq  infer.Request
	result   infer.Result
	err      error
}

func newFakeProject() *fakeProject {
	return &fakeProject{
		speakers: map[string]int{"Alice": 0},
		styles:   map[string]int{"Neutral": 0, "Happy": 1},
		result:   infer.Result{Audio: []float32{0.1, -0.2, 0.3}, SampleRate: 44100},
	}
}

func (f *fakeProject) SpeakerID(name string) (int, bool) {
	id, ok := f.speakers[name]
	return id, ok
}

func (f *fakeProject) StyleID(name string) (int, bool) {
	id, ok := f.styles[name]
	return id, ok
}

func (f *fakeProject) InferChinese(req infer.Request) (infer.Result, error) {
	f.lastReq = req
	return f.result, f.err
}

func ptr[T any](v T) *T { return &v }

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	s := &Synthesizer{project: newFakeProject()}
	_, err := s.Synthesize(Input{Text: "   "})
	assert.Error(t, err)
}

func TestSynthesizeAppliesDefaults(t *testing.T) {
	fp := newFakeProject()
	s := &Synthesizer{project: fp}

	_, err := s.Synthesize(Input{Text: "你好"})
	require.NoError(t, err)

	assert.Equal(t, defaultStyle, fp.lastReq.Style)
	assert.Equal(t, float32(defaultStyleWeight), fp.lastReq.StyleWeight)
	assert.Equal(t, float32(defaultSdpRatio), fp.lastReq.SdpRatio)
	assert.Equal(t, float32(defaultNoise), fp.lastReq.Noise)
	assert.Equal(t, float32(defaultNoiseW), fp.lastReq.NoiseW)
	assert.Equal(t, float32(defaultLengthScale), fp.lastReq.LengthScale)
	assert.Equal(t, float32(defaultAssistTextWeight), fp.lastReq.AssistWeight)
}

func TestSynthesizeRejectsUnknownSpeaker(t *testing.T) {
	s := &Synthesizer{project: newFakeProject()}
	_, err := s.Synthesize(Input{Text: "你好", Speaker: ptr("Bob")})
	assert.Error(t, err)
}

func TestSynthesizeRejectsUnknownStyle(t *testing.T) {
	s := &Synthesizer{project: newFakeProject()}
	_, err := s.Synthesize(Input{Text: "你好", Style: ptr("Angry")})
	assert.Error(t, err)
}

func TestSynthesizeRejectsOutOfRangeStyleWeight(t *testing.T) {
	s := &Synthesizer{project: newFakeProject()}
	_, err := s.Synthesize(Input{Text: "你好", StyleWeight: ptr(float32(1.5))})
	assert.Error(t, err)
}

func TestSynthesizeClampsSdpRatio(t *testing.T) {
	fp := newFakeProject()
	s := &Synthesizer{project: fp}
	_, err := s.Synthesize(Input{Text: "你好", SdpRatio: ptr(float32(2.0))})
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), fp.lastReq.SdpRatio)
}

func TestSynthesizeClampsNegativeNoiseToZero(t *testing.T) {
	fp := newFakeProject()
	s := &Synthesizer{project: fp}
	_, err := s.Synthesize(Input{Text: "你好", Noise: ptr(float32(-1.0))})
	require.NoError(t, err)
	assert.Equal(t, float32(0.0), fp.lastReq.Noise)
}

func TestSynthesizeRejectsNonPositiveLengthScale(t *testing.T) {
	s := &Synthesizer{project: newFakeProject()}
	_, err := s.Synthesize(Input{Text: "你好", LengthScale: ptr(float32(0))})
	assert.Error(t, err)
}

func TestSynthesizeDerivesLengthScaleFromSpeed(t *testing.T) {
	fp := newFakeProject()
	s := &Synthesizer{project: fp}
	_, err := s.Synthesize(Input{Text: "你好", Speed: ptr(float32(2.0))})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, fp.lastReq.LengthScale, 1e-6)
}

func TestSynthesizeLengthScaleTakesPrecedenceOverSpeed(t *testing.T) {
	fp := newFakeProject()
	s := &Synthesizer{project: fp}
	_, err := s.Synthesize(Input{Text: "你好", LengthScale: ptr(float32(1.5)), Speed: ptr(float32(2.0))})
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), fp.lastReq.LengthScale)
}

func TestSynthesizeRejectsOutOfRangeAssistWeight(t *testing.T) {
	s := &Synthesizer{project: newFakeProject()}
	_, err := s.Synthesize(Input{Text: "你好", AssistText: ptr("assist"), AssistWeight: ptr(float32(-0.1))})
	assert.Error(t, err)
}

func TestSynthesizeEncodesWAVAndNormalizesPeak(t *testing.T) {
	fp := newFakeProject()
	s := &Synthesizer{project: fp}
	result, err := s.Synthesize(Input{Text: "你好"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.WAV)
	assert.Equal(t, 44100, result.SampleRate)

	var peak float32
	for _, v := range result.PCM {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	assert.InDelta(t, 0.97, peak, 1e-4)
}

func TestSynthesizePropagatesInferenceError(t *testing.T) {
	fp := newFakeProject()
	fp.err = assert.AnError
	s := &Synthesizer{project: fp}
	_, err := s.Synthesize(Input{Text: "你好"})
	assert.Error(t, err)
}
