package config

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultSamplingRate = 44100
	defaultAddBlank     = true
)

// HyperParametersData is the `data` block of a Style-Bert-VITS2
// config.json: sampling rate, blank-token policy, and the
// speaker/style name-to-id tables.
type HyperParametersData struct {
	UseJPExtra   bool           `json:"use_jp_extra"`
	SamplingRate int            `json:"sampling_rate"`
	AddBlank     bool           `json:"add_blank"`
	CleanedText  bool           `json:"cleaned_text"`
	Spk2ID       map[string]int `json:"spk2id"`
	NumStyles    int            `json:"num_styles"`
	Style2ID     map[string]int `json:"style2id"`
}

// HyperParameters is the full config.json shipped alongside a model.
type HyperParameters struct {
	ModelName string              `json:"model_name"`
	Version   string              `json:"version"`
	Data      HyperParametersData `json:"data"`
}

// LoadHyperParameters reads and defaults a model's config.json, filling
// in sampling rate / add_blank / style2id the way a bare-bones export
// (one that only lists num_styles, or nothing at all) needs.
func LoadHyperParameters(path string) (*HyperParameters, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read hyper-parameters from %s: %w", path, err)
	}

	var hps HyperParameters
	if err := json.Unmarshal(raw, &hps); err != nil {
		return nil, fmt.Errorf("config: failed to parse hyper-parameters JSON at %s: %w", path, err)
	}

	if hps.Data.SamplingRate == 0 {
		hps.Data.SamplingRate = defaultSamplingRate
	}
	if !rawHasKey(raw, "add_blank") {
		hps.Data.AddBlank = defaultAddBlank
	}
	if hps.Data.NumStyles == 0 {
		hps.Data.NumStyles = maxInt(len(hps.Data.Style2ID), 1)
	}
	if len(hps.Data.Style2ID) == 0 {
		hps.Data.Style2ID = make(map[string]int, hps.Data.NumStyles)
		for i := 0; i < hps.Data.NumStyles; i++ {
			hps.Data.Style2ID[fmt.Sprint(i)] = i
		}
	}

	return &hps, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// rawHasKey is a cheap presence check so an explicit `"add_blank": false`
// isn't silently overwritten by the default the way a zero-value bool
// would otherwise be indistinguishable from "absent".
func rawHasKey(raw []byte, key string) bool {
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	data, ok := m["data"].(map[string]interface{})
	if !ok {
		return false
	}
	_, ok = data[key]
	return ok
}
