// Package infer assembles phones, tones, BERT features and style vectors
// into the acoustic model's fixed 13-tensor input schedule and runs the
// Chinese synthesis path end to end.
package infer

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/Rorical/sbv2-onnx-server/internal/config"
	"github.com/Rorical/sbv2-onnx-server/internal/npy"
	"github.com/Rorical/sbv2-onnx-server/pkg/acoustic"
	"github.com/Rorical/sbv2-onnx-server/pkg/bertfeat"
	"github.com/Rorical/sbv2-onnx-server/pkg/normalize"
	"github.com/Rorical/sbv2-onnx-server/pkg/symbols"
	"github.com/Rorical/sbv2-onnx-server/pkg/zhg2p"
)

const defaultStyleName = "Neutral"

// Project bundles everything one Chinese synthesis call needs: the
// style/speaker id tables, the acoustic and BERT sessions, and the G2P
// engine. None of its pieces are safe for unsynchronized concurrent use
// across sessions — see each dependency's own concurrency note.
type Project struct {
	hps          *config.HyperParameters
	styleVectors [][]float32
	style2id     map[string]int
	spk2id       map[string]int

	acoustic *acoustic.Session
	bert     *bertfeat.Extractor
	g2p      *zhg2p.Engine

	defaultStyleID   int
	defaultSpeakerID int
}

// Request is one Chinese synthesis call's fully-resolved parameters —
// every optional field already defaulted/validated by pkg/synth.
type Request struct {
	Text         string
	Speaker      string
	Style        string
	StyleWeight  float32
	SdpRatio     float32
	Noise        float32
	NoiseW       float32
	LengthScale  float32
	AssistText   string
	AssistWeight float32
}

// Result is a raw synthesis output: samples and the configured sample
// rate.
type Result struct {
	Audio      []float32
	SampleRate int
}

// Load reads a model's config.json and style_vectors.npy and wires them
// to already-opened acoustic/BERT sessions and G2P engine.
func Load(configPath, styleVecPath string, acousticSession *acoustic.Session, bert *bertfeat.Extractor, g2p *zhg2p.Engine) (*Project, error) {
	hps, err := config.LoadHyperParameters(configPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(styleVecPath)
	if err != nil {
		return nil, fmt.Errorf("infer: failed to open style vectors %s: %w", styleVecPath, err)
	}
	defer f.Close()
	styleVectors, err := npy.ReadFloat32Matrix2D(f)
	if err != nil {
		return nil, fmt.Errorf("infer: failed to read style vectors %s: %w", styleVecPath, err)
	}
	numStyles := len(styleVectors)
	if numStyles == 0 {
		return nil, fmt.Errorf("infer: style_vectors.npy is empty")
	}

	style2id := make(map[string]int, len(hps.Data.Style2ID))
	if len(hps.Data.Style2ID) == 0 {
		for i := 0; i < numStyles; i++ {
			style2id[strconv.Itoa(i)] = i
		}
	} else {
		for name, id := range hps.Data.Style2ID {
			if id >= numStyles {
				id = numStyles - 1
			}
			style2id[name] = id
		}
	}

	spk2id := make(map[string]int, len(hps.Data.Spk2ID))
	for name, id := range hps.Data.Spk2ID {
		spk2id[name] = id
	}

	defaultStyleID := 0
	if id, ok := style2id[defaultStyleName]; ok {
		defaultStyleID = id
	}
	if defaultStyleID >= numStyles {
		defaultStyleID = numStyles - 1
	}

	defaultSpeakerID := 0
	if len(spk2id) > 0 {
		ids := make([]int, 0, len(spk2id))
		for _, id := range spk2id {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		defaultSpeakerID = ids[0]
	}

	return &Project{
		hps:              hps,
		styleVectors:     styleVectors,
		style2id:         style2id,
		spk2id:           spk2id,
		acoustic:         acousticSession,
		bert:             bert,
		g2p:              g2p,
		defaultStyleID:   defaultStyleID,
		defaultSpeakerID: defaultSpeakerID,
	}, nil
}

// SampleRate returns the configured output sample rate.
func (p *Project) SampleRate() int {
	return p.hps.Data.SamplingRate
}

// AvailableSpeakers returns every configured speaker name, ordered by id.
func (p *Project) AvailableSpeakers() []string {
	return namesByID(p.spk2id)
}

// AvailableStyles returns every configured style name, ordered by id.
func (p *Project) AvailableStyles() []string {
	return namesByID(p.style2id)
}

func namesByID(m map[string]int) []string {
	type entry struct {
		name string
		id   int
	}
	entries := make([]entry, 0, len(m))
	for name, id := range m {
		entries = append(entries, entry{name, id})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// SpeakerID looks up a speaker name.
func (p *Project) SpeakerID(name string) (int, bool) {
	id, ok := p.spk2id[name]
	return id, ok
}

// StyleID looks up a style name.
func (p *Project) StyleID(name string) (int, bool) {
	id, ok := p.style2id[name]
	return id, ok
}

// InferChinese runs the full Chinese synthesis pipeline: normalize, G2P,
// symbol/tone mapping, optional blank interspersion, BERT feature
// extraction, style vector interpolation, and the acoustic run.
func (p *Project) InferChinese(req Request) (Result, error) {
	normalized := normalize.NormalizeText(req.Text)
	phones, tones, word2ph, err := p.g2p.G2P(normalized)
	if err != nil {
		return Result{}, fmt.Errorf("infer: G2P failed: %w", err)
	}

	languageID := int64(symbols.LanguageID["ZH"])
	toneStart := int64(symbols.LanguageToneStart["ZH"])

	phoneIDs := make([]int64, len(phones))
	for i, phone := range phones {
		id, ok := symbols.SymbolID[phone]
		if !ok {
			return Result{}, fmt.Errorf("infer: unknown phone symbol %q", phone)
		}
		phoneIDs[i] = int64(id)
	}

	toneIDs := make([]int64, len(tones))
	for i, tone := range tones {
		toneIDs[i] = toneStart + int64(tone)
	}

	langIDs := make([]int64, len(phoneIDs))
	for i := range langIDs {
		langIDs[i] = languageID
	}

	if p.hps.Data.AddBlank {
		phoneIDs = intersperse(phoneIDs, 0)
		toneIDs = intersperse(toneIDs, 0)
		langIDs = intersperse(langIDs, languageID)
		word2ph = doubleWord2Ph(word2ph)
	}

	var assist *bertfeat.Assist
	if req.AssistText != "" {
		assist = &bertfeat.Assist{Text: req.AssistText, Weight: req.AssistWeight}
	}
	bertFeatures, err := p.bert.Extract(normalized, word2ph, assist)
	if err != nil {
		return Result{}, fmt.Errorf("infer: BERT extraction failed: %w", err)
	}

	frames := len(phoneIDs)
	if len(bertFeatures) == 0 || len(bertFeatures[0]) != frames {
		got := 0
		if len(bertFeatures) > 0 {
			got = len(bertFeatures[0])
		}
		return Result{}, fmt.Errorf("infer: BERT frame count %d does not match phone count %d", got, frames)
	}
	hidden := len(bertFeatures)
	zeroBert := make([][]float32, hidden)
	for i := range zeroBert {
		zeroBert[i] = make([]float32, frames)
	}

	speakerID := p.defaultSpeakerID
	if req.Speaker != "" {
		id, ok := p.spk2id[req.Speaker]
		if !ok {
			return Result{}, fmt.Errorf("infer: speaker %q not found in config", req.Speaker)
		}
		speakerID = id
	}

	styleVector, err := p.styleVector(req.Style, req.StyleWeight)
	if err != nil {
		return Result{}, err
	}

	waveform, err := p.acoustic.Run(acoustic.Request{
		Phones:      phoneIDs,
		Tones:       toneIDs,
		LanguageIDs: langIDs,
		SpeakerID:   int64(speakerID),
		ZhBert:      bertFeatures,
		JpBert:      zeroBert,
		EnBert:      zeroBert,
		Style:       styleVector,
		LengthScale: req.LengthScale,
		SdpRatio:    req.SdpRatio,
		Noise:       req.Noise,
		NoiseW:      req.NoiseW,
	})
	if err != nil {
		return Result{}, fmt.Errorf("infer: acoustic run failed: %w", err)
	}

	return Result{Audio: waveform, SampleRate: p.hps.Data.SamplingRate}, nil
}

func (p *Project) styleVector(styleName string, weight float32) ([]float32, error) {
	styleID := p.defaultStyleID
	if styleName != "" {
		id, ok := p.style2id[styleName]
		if !ok {
			return nil, fmt.Errorf("infer: style %q not found", styleName)
		}
		styleID = id
	}
	if styleID >= len(p.styleVectors) {
		return nil, fmt.Errorf("infer: style id %d out of range", styleID)
	}

	mean := p.styleVectors[0]
	target := p.styleVectors[styleID]
	out := make([]float32, len(mean))
	for i := range out {
		out[i] = mean[i] + (target[i]-mean[i])*weight
	}
	return out, nil
}

// doubleWord2Ph re-aligns a word2ph count table to a blank-interspersed
// phone sequence: every phone gets one extra blank beside it, so each
// word's phone count doubles, and the leading blank (which precedes the
// very first phone) is folded into the first word's count.
func doubleWord2Ph(word2ph []int) []int {
	out := make([]int, len(word2ph))
	for i, n := range word2ph {
		out[i] = n * 2
	}
	if len(out) > 0 {
		out[0]++
	}
	return out
}

func intersperse(values []int64, blank int64) []int64 {
	out := make([]int64, 0, len(values)*2+1)
	for _, v := range values {
		out = append(out, blank, v)
	}
	out = append(out, blank)
	return out
}
