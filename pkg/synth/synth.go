// Package synth is the Chinese synthesis facade: it defaults and
// validates caller-supplied parameters, drives pkg/infer, and encodes
// the resulting PCM to WAV.
package synth

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rorical/sbv2-onnx-server/pkg/audio"
	"github.com/Rorical/sbv2-onnx-server/pkg/infer"
)

const (
	defaultStyle            = "Neutral"
	defaultStyleWeight      = float32(1.0)
	defaultSdpRatio         = float32(0.2)
	defaultNoise            = float32(0.6)
	defaultNoiseW           = float32(0.8)
	defaultLengthScale      = float32(1.0)
	defaultAssistTextWeight = float32(1.0)
)

// Input is a caller-supplied synthesis request; every pointer field is
// optional and defaulted by Synthesize.
type Input struct {
	Text         string
	Speaker      *string
	Style        *string
	StyleWeight  *float32
	SdpRatio     *float32
	Noise        *float32
	NoiseW       *float32
	LengthScale  *float32
	Speed        *float32
	AssistText   *string
	AssistWeight *float32
}

// Timings records how long inference took.
type Timings struct {
	TotalMS int64
}

// Result is a completed synthesis: raw PCM, the WAV-encoded bytes, and
// timing information.
type Result struct {
	PCM        []float32
	SampleRate int
	WAV        []byte
	Timings    Timings
}

// project is the subset of *infer.Project this package drives — narrowed
// to an interface so tests can exercise validation/defaulting without a
// loaded ONNX session.
type project interface {
	SpeakerID(name string) (int, bool)
	StyleID(name string) (int, bool)
	InferChinese(req infer.Request) (infer.Result, error)
}

// Synthesizer drives one loaded Chinese TTS project.
type Synthesizer struct {
	project project
}

// New wraps an already-loaded inference project.
func New(project *infer.Project) *Synthesizer {
	return &Synthesizer{project: project}
}

// Synthesize validates and defaults input, runs inference, and encodes
// the result to WAV after peak-normalizing the PCM.
func (s *Synthesizer) Synthesize(input Input) (Result, error) {
	if strings.TrimSpace(input.Text) == "" {
		return Result{}, fmt.Errorf("synth: text input must not be empty")
	}

	req, err := s.buildRequest(input)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	out, err := s.project.InferChinese(req)
	if err != nil {
		return Result{}, fmt.Errorf("synth: inference failed: %w", err)
	}
	elapsed := time.Since(start)

	audio.NormalizePeak(out.Audio)
	wav, err := audio.PCMToWAV(out.Audio, out.SampleRate)
	if err != nil {
		return Result{}, fmt.Errorf("synth: failed to encode WAV output: %w", err)
	}

	return Result{
		PCM:        out.Audio,
		SampleRate: out.SampleRate,
		WAV:        wav,
		Timings:    Timings{TotalMS: elapsed.Milliseconds()},
	}, nil
}

func (s *Synthesizer) buildRequest(input Input) (infer.Request, error) {
	req := infer.Request{
		Text:         input.Text,
		Style:        defaultStyle,
		StyleWeight:  defaultStyleWeight,
		SdpRatio:     defaultSdpRatio,
		Noise:        defaultNoise,
		NoiseW:       defaultNoiseW,
		LengthScale:  defaultLengthScale,
		AssistWeight: defaultAssistTextWeight,
	}

	if input.Speaker != nil {
		if _, ok := s.project.SpeakerID(*input.Speaker); !ok {
			return infer.Request{}, fmt.Errorf("synth: speaker %q is not available", *input.Speaker)
		}
		req.Speaker = *input.Speaker
	}

	if input.Style != nil {
		if _, ok := s.project.StyleID(*input.Style); !ok {
			return infer.Request{}, fmt.Errorf("synth: style %q is not available", *input.Style)
		}
		req.Style = *input.Style
	}

	if input.StyleWeight != nil {
		w := *input.StyleWeight
		if w < 0.0 || w > 1.0 {
			return infer.Request{}, fmt.Errorf("synth: style_weight must be within [0.0, 1.0]")
		}
		req.StyleWeight = w
	}

	if input.SdpRatio != nil {
		req.SdpRatio = clamp(*input.SdpRatio, 0.0, 1.0)
	}

	if input.Noise != nil {
		req.Noise = maxf(*input.Noise, 0.0)
	}

	if input.NoiseW != nil {
		req.NoiseW = maxf(*input.NoiseW, 0.0)
	}

	if input.LengthScale != nil {
		if *input.LengthScale <= 0.0 {
			return infer.Request{}, fmt.Errorf("synth: length_scale must be positive")
		}
		req.LengthScale = *input.LengthScale
	} else if input.Speed != nil {
		if *input.Speed <= 0.0 {
			return infer.Request{}, fmt.Errorf("synth: speed must be positive")
		}
		req.LengthScale = 1.0 / *input.Speed
	}

	if input.AssistText != nil {
		req.AssistText = *input.AssistText
	}

	if input.AssistWeight != nil {
		w := *input.AssistWeight
		if w < 0.0 || w > 1.0 {
			return infer.Request{}, fmt.Errorf("synth: assist_weight must be within [0.0, 1.0]")
		}
		req.AssistWeight = w
	}

	return req, nil
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
