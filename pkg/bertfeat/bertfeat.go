// Package bertfeat extracts Chinese BERT contextual features and aligns
// them to a word2ph phone-repetition schedule, producing the per-phone
// feature matrix the acoustic model conditions on.
package bertfeat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/Rorical/sbv2-onnx-server/internal/onnxrt"
)

// Matrix is a dense [H][T] feature matrix: H hidden dims, T aligned
// phone frames.
type Matrix [][]float32

// Assist carries an optional assist-text blending request for Extract.
type Assist struct {
	Text   string
	Weight float32
}

// assistEntry is a single cached mean embedding, guarded so that two
// goroutines racing on the same key settle on one shared vector.
type assistEntry struct {
	once sync.Once
	mean []float32
	err  error
}

// Extractor wraps a loaded BERT ONNX session and tokenizer.
type Extractor struct {
	session   *ort.DynamicAdvancedSession
	tokenizer *Tokenizer
	hidden    int

	assistMu    sync.Mutex
	assistCache *lru.Cache[string, *assistEntry]
}

const assistCacheCapacity = 8

// bertInputNames/bertOutputNames are the I/O names of the pinned
// Chinese RoBERTa-wwm ONNX export this extractor targets. Unlike the
// session.inputs introspection the reference implementation uses,
// onnxruntime_go's DynamicAdvancedSession binds names at construction
// time, so they're declared here rather than discovered per-call.
var (
	bertInputNames  = []string{"input_ids", "attention_mask", "token_type_ids"}
	bertOutputNames = []string{"last_hidden_state"}
)

// New opens a BERT extractor from an already-populated model directory
// (see internal/assets for how required files get there). libraryPath
// may be empty to use onnxruntime's default search path.
func New(modelDir, libraryPath string) (*Extractor, error) {
	if err := onnxrt.Init(libraryPath); err != nil {
		return nil, err
	}

	tokenizer, err := NewTokenizer(filepath.Join(modelDir, "vocab.txt"))
	if err != nil {
		return nil, err
	}

	modelPath, err := locateModelFile(modelDir)
	if err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath, bertInputNames, bertOutputNames, nil)
	if err != nil {
		return nil, fmt.Errorf("bertfeat: failed to load ONNX model %s: %w", modelPath, err)
	}

	cache, err := lru.New[string, *assistEntry](assistCacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("bertfeat: failed to build assist cache: %w", err)
	}

	return &Extractor{session: session, tokenizer: tokenizer, assistCache: cache}, nil
}

// Close releases the underlying ONNX session.
func (e *Extractor) Close() error {
	return e.session.Destroy()
}

func locateModelFile(dir string) (string, error) {
	for _, candidate := range []string{"model_fp16.onnx", "model.onnx", "encoder_model.onnx"} {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("bertfeat: no ONNX model file found in %s", dir)
}

// Extract runs the BERT forward pass over text, aligns it to word2ph,
// and optionally blends in an assist-text mean embedding. word2ph must
// satisfy len(word2ph) == rune_count(text)+2.
func (e *Extractor) Extract(text string, word2ph []int, assist *Assist) (Matrix, error) {
	features, tokens, err := e.forward(text)
	if err != nil {
		return nil, err
	}

	aligned, err := alignWord2Ph(text, word2ph, tokens)
	if err != nil {
		return nil, fmt.Errorf("bertfeat: failed to align word2ph: %w", err)
	}
	if len(aligned) != len(features) {
		return nil, fmt.Errorf("bertfeat: aligned word2ph length %d does not match BERT sequence length %d", len(aligned), len(features))
	}

	var mean []float32
	if assist != nil && assist.Weight > 0 {
		mean, err = e.assistMean(assist.Text)
		if err != nil {
			return nil, err
		}
	}

	totalFrames := 0
	for _, c := range aligned {
		totalFrames += c
	}

	result := make(Matrix, e.hidden)
	for h := range result {
		result[h] = make([]float32, totalFrames)
	}

	frame := 0
	for i, repeat := range aligned {
		if repeat == 0 {
			continue
		}
		row := features[i]
		if mean != nil {
			blended := make([]float32, len(row))
			w := assist.Weight
			for h, v := range row {
				blended[h] = v*(1-w) + mean[h]*w
			}
			row = blended
		}
		for r := 0; r < repeat; r++ {
			for h, v := range row {
				result[h][frame] = v
			}
			frame++
		}
	}

	return result, nil
}

// assistMean returns the cached column-mean embedding for text,
// computing and inserting it on a miss.
func (e *Extractor) assistMean(text string) ([]float32, error) {
	key := strings.TrimSpace(text)

	e.assistMu.Lock()
	entry, ok := e.assistCache.Get(key)
	if !ok {
		entry = &assistEntry{}
		e.assistCache.Add(key, entry)
	}
	e.assistMu.Unlock()

	entry.once.Do(func() {
		features, _, err := e.forward(key)
		if err != nil {
			entry.err = err
			return
		}
		entry.mean = columnMean(features)
	})

	return entry.mean, entry.err
}

func columnMean(features [][]float32) []float32 {
	if len(features) == 0 {
		return nil
	}
	hidden := len(features[0])
	mean := make([]float32, hidden)
	for _, row := range features {
		for h, v := range row {
			mean[h] += v
		}
	}
	n := float32(len(features))
	for h := range mean {
		mean[h] /= n
	}
	return mean
}

// forward tokenizes text and runs the BERT model, returning per-token
// hidden-state rows alongside the tokens that produced them.
func (e *Extractor) forward(text string) ([][]float32, []Token, error) {
	tokens := e.tokenizer.Encode(text)
	seqLen := len(tokens)
	if seqLen == 0 {
		return nil, nil, fmt.Errorf("bertfeat: tokenizer produced empty sequence for %q", text)
	}

	inputIDs := make([]int64, seqLen)
	tokenTypeIDs := make([]int64, seqLen)
	attentionMask := make([]int64, seqLen)
	for i, tok := range tokens {
		inputIDs[i] = tok.ID
		attentionMask[i] = 1
	}

	shape := ort.NewShape(1, int64(seqLen))
	inputIDsTensor, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("bertfeat: failed to build input_ids tensor: %w", err)
	}
	defer inputIDsTensor.Destroy()
	tokenTypeTensor, err := ort.NewTensor(shape, tokenTypeIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("bertfeat: failed to build token_type_ids tensor: %w", err)
	}
	defer tokenTypeTensor.Destroy()
	attentionTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, nil, fmt.Errorf("bertfeat: failed to build attention_mask tensor: %w", err)
	}
	defer attentionTensor.Destroy()

	// Order must match bertInputNames: input_ids, attention_mask, token_type_ids.
	inputs := []ort.Value{inputIDsTensor, attentionTensor, tokenTypeTensor}

	outputs := []ort.Value{nil}
	if err := e.session.Run(inputs, outputs); err != nil {
		return nil, nil, fmt.Errorf("bertfeat: ONNX run failed: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("bertfeat: unexpected output tensor type")
	}
	data := tensor.GetData()
	shapeOut := tensor.GetShape()

	var hidden int
	var rows [][]float32
	switch len(shapeOut) {
	case 3:
		hidden = int(shapeOut[2])
		seq := int(shapeOut[1])
		rows = make([][]float32, seq)
		for i := 0; i < seq; i++ {
			rows[i] = append([]float32(nil), data[i*hidden:(i+1)*hidden]...)
		}
	case 2:
		hidden = int(shapeOut[1])
		seq := int(shapeOut[0])
		rows = make([][]float32, seq)
		for i := 0; i < seq; i++ {
			rows[i] = append([]float32(nil), data[i*hidden:(i+1)*hidden]...)
		}
	default:
		return nil, nil, fmt.Errorf("bertfeat: unexpected BERT output dimensions %v", shapeOut)
	}

	e.hidden = hidden
	return rows, tokens, nil
}

// alignWord2Ph expands the character-indexed word2ph vector to one
// entry per BERT token, per §4.6.1's overlap rule.
func alignWord2Ph(text string, word2ph []int, tokens []Token) ([]int, error) {
	if len(word2ph) == 0 {
		return nil, fmt.Errorf("bertfeat: word2ph is empty")
	}

	type span struct {
		start, end, count int
	}
	var spans []span
	idx := 0
	for byteStart, r := range text {
		idx++
		if idx >= len(word2ph) {
			return nil, fmt.Errorf("bertfeat: word2ph length mismatch with text characters")
		}
		spans = append(spans, span{start: byteStart, end: byteStart + len(string(r)), count: word2ph[idx]})
	}
	if len(word2ph) != len(spans)+2 {
		return nil, fmt.Errorf("bertfeat: word2ph length does not equal text characters + 2")
	}

	leading := word2ph[0]
	trailing := word2ph[len(word2ph)-1]

	aligned := make([]int, 0, len(tokens))
	cursor := 0
	for i, tok := range tokens {
		switch {
		case i == 0:
			aligned = append(aligned, leading)
		case i == len(tokens)-1:
			aligned = append(aligned, trailing)
		case tok.Start == 0 && tok.End == 0:
			aligned = append(aligned, 0)
		default:
			total := 0
			for cursor < len(spans) {
				s := spans[cursor]
				if s.end <= tok.Start {
					cursor++
					continue
				}
				if s.start >= tok.End {
					break
				}
				total += s.count
				cursor++
			}
			aligned = append(aligned, total)
		}
	}
	return aligned, nil
}
