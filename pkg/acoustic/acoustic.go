// Package acoustic wraps the Style-Bert-VITS2 acoustic ONNX graph. Only
// its input/output contract is modeled here — the graph itself is an
// opaque black box this module never inspects.
package acoustic

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Rorical/sbv2-onnx-server/internal/onnxrt"
)

// inputNames is the fixed 13-tensor schedule the acoustic graph expects,
// in order: phones, phone_lengths, speaker_id, tones, language_ids,
// zh_bert, ja_bert, en_bert, style, length_scale, sdp_ratio, noise,
// noise_w.
var inputNames = []string{
	"x_tst", "x_tst_lengths", "sid", "tones", "language",
	"bert", "ja_bert", "en_bert", "style_vec",
	"length_scale", "sdp_ratio", "noise_scale", "noise_scale_w",
}

var outputNames = []string{"output"}

// Request carries every tensor one acoustic run needs. ZhBert/JpBert/EnBert
// are row-major [H][T] matrices; all three must share the same T as
// Phones/Tones/LanguageIDs.
type Request struct {
	Phones      []int64
	Tones       []int64
	LanguageIDs []int64
	SpeakerID   int64
	ZhBert      [][]float32
	JpBert      [][]float32
	EnBert      [][]float32
	Style       []float32
	LengthScale float32
	SdpRatio    float32
	Noise       float32
	NoiseW      float32
}

// Session is a loaded acoustic ONNX graph. It is not safe for concurrent
// Run calls — callers must serialize access (a single mutex, or a
// dedicated worker per session), per this module's concurrency model.
type Session struct {
	sess *ort.DynamicAdvancedSession
}

// New loads the acoustic model at modelPath. libraryPath may be empty
// to use onnxruntime's default search path.
func New(modelPath, libraryPath string) (*Session, error) {
	if err := onnxrt.Init(libraryPath); err != nil {
		return nil, err
	}
	sess, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, nil)
	if err != nil {
		return nil, fmt.Errorf("acoustic: failed to load ONNX model %s: %w", modelPath, err)
	}
	return &Session{sess: sess}, nil
}

// Close releases the underlying ONNX session.
func (s *Session) Close() error {
	return s.sess.Destroy()
}

// Run executes one acoustic pass and returns the flattened, row-major
// float32 waveform from the graph's first output.
func (s *Session) Run(req Request) ([]float32, error) {
	t := len(req.Phones)
	if len(req.Tones) != t || len(req.LanguageIDs) != t {
		return nil, fmt.Errorf("acoustic: phones/tones/language_ids length mismatch (%d/%d/%d)", t, len(req.Tones), len(req.LanguageIDs))
	}
	hidden, err := bertHidden(req, t)
	if err != nil {
		return nil, err
	}

	phonesTensor, err := ort.NewTensor(ort.NewShape(1, int64(t)), req.Phones)
	if err != nil {
		return nil, fmt.Errorf("acoustic: failed to build phones tensor: %w", err)
	}
	defer phonesTensor.Destroy()
	lengthsTensor, err := ort.NewTensor(ort.NewShape(1), []int64{int64(t)})
	if err != nil {
		return nil, fmt.Errorf("acoustic: failed to build phone_lengths tensor: %w", err)
	}
	defer lengthsTensor.Destroy()
	sidTensor, err := ort.NewTensor(ort.NewShape(1), []int64{req.SpeakerID})
	if err != nil {
		return nil, fmt.Errorf("acoustic: failed to build speaker id tensor: %w", err)
	}
	defer sidTensor.Destroy()
	tonesTensor, err := ort.NewTensor(ort.NewShape(1, int64(t)), req.Tones)
	if err != nil {
		return nil, fmt.Errorf("acoustic: failed to build tones tensor: %w", err)
	}
	defer tonesTensor.Destroy()
	langTensor, err := ort.NewTensor(ort.NewShape(1, int64(t)), req.LanguageIDs)
	if err != nil {
		return nil, fmt.Errorf("acoustic: failed to build language_ids tensor: %w", err)
	}
	defer langTensor.Destroy()

	zhTensor, err := newBertTensor(req.ZhBert, hidden, t)
	if err != nil {
		return nil, fmt.Errorf("acoustic: zh_bert: %w", err)
	}
	defer zhTensor.Destroy()
	jaTensor, err := newBertTensor(req.JpBert, hidden, t)
	if err != nil {
		return nil, fmt.Errorf("acoustic: ja_bert: %w", err)
	}
	defer jaTensor.Destroy()
	enTensor, err := newBertTensor(req.EnBert, hidden, t)
	if err != nil {
		return nil, fmt.Errorf("acoustic: en_bert: %w", err)
	}
	defer enTensor.Destroy()

	styleTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(req.Style))), req.Style)
	if err != nil {
		return nil, fmt.Errorf("acoustic: failed to build style tensor: %w", err)
	}
	defer styleTensor.Destroy()

	lengthScaleTensor, err := ort.NewTensor(ort.NewShape(), []float32{req.LengthScale})
	if err != nil {
		return nil, fmt.Errorf("acoustic: failed to build length_scale tensor: %w", err)
	}
	defer lengthScaleTensor.Destroy()
	sdpTensor, err := ort.NewTensor(ort.NewShape(), []float32{req.SdpRatio})
	if err != nil {
		return nil, fmt.Errorf("acoustic: failed to build sdp_ratio tensor: %w", err)
	}
	defer sdpTensor.Destroy()
	noiseTensor, err := ort.NewTensor(ort.NewShape(), []float32{req.Noise})
	if err != nil {
		return nil, fmt.Errorf("acoustic: failed to build noise tensor: %w", err)
	}
	defer noiseTensor.Destroy()
	noiseWTensor, err := ort.NewTensor(ort.NewShape(), []float32{req.NoiseW})
	if err != nil {
		return nil, fmt.Errorf("acoustic: failed to build noise_w tensor: %w", err)
	}
	defer noiseWTensor.Destroy()

	inputs := []ort.Value{
		phonesTensor, lengthsTensor, sidTensor, tonesTensor, langTensor,
		zhTensor, jaTensor, enTensor, styleTensor,
		lengthScaleTensor, sdpTensor, noiseTensor, noiseWTensor,
	}
	outputs := []ort.Value{nil}

	if err := s.sess.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("acoustic: ONNX run failed: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("acoustic: unexpected output tensor type")
	}
	return append([]float32(nil), out.GetData()...), nil
}

func bertHidden(req Request, t int) (int, error) {
	if len(req.ZhBert) == 0 {
		return 0, fmt.Errorf("acoustic: zh_bert matrix is empty")
	}
	hidden := len(req.ZhBert)
	for name, m := range map[string][][]float32{"zh_bert": req.ZhBert, "ja_bert": req.JpBert, "en_bert": req.EnBert} {
		if len(m) != hidden {
			return 0, fmt.Errorf("acoustic: %s hidden dim %d does not match zh_bert %d", name, len(m), hidden)
		}
		for _, row := range m {
			if len(row) != t {
				return 0, fmt.Errorf("acoustic: %s frame count %d does not match phone count %d", name, len(row), t)
			}
		}
	}
	return hidden, nil
}

func newBertTensor(matrix [][]float32, hidden, frames int) (*ort.Tensor[float32], error) {
	flat := make([]float32, 0, hidden*frames)
	for _, row := range matrix {
		flat = append(flat, row...)
	}
	return ort.NewTensor(ort.NewShape(1, int64(hidden), int64(frames)), flat)
}
