// Package assets materializes the on-disk dictionary and model files the
// pipeline needs before it can run: gojieba's segmentation dictionaries
// and the Chinese BERT ONNX export, downloading either the first time
// they're missing.
package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// jiebaDictFiles are the files gojieba.NewJieba expects, sourced from
// its own upstream dictionary release.
var jiebaDictFiles = []string{
	"jieba.dict.utf8",
	"hmm_model.utf8",
	"user.dict.utf8",
	"idf.utf8",
	"stop_words.utf8",
}

const jiebaDictBaseURL = "https://raw.githubusercontent.com/yanyiwu/gojieba/v1.4.6/deps/cppjieba/dict/"

// chineseBertRepo is the pinned HuggingFace repo the BERT extractor's
// ONNX export and tokenizer assets are fetched from.
const chineseBertRepo = "tsukumijima/chinese-roberta-wwm-ext-large-onnx"

var requiredBertFiles = []string{
	"model_fp16.onnx",
	"tokenizer.json",
	"tokenizer_config.json",
	"config.json",
	"vocab.txt",
	"special_tokens_map.json",
	"added_tokens.json",
}

// EnsureDictDir returns (creating if necessary) the directory gojieba's
// dictionary files live in, under the XDG data home.
func EnsureDictDir() (string, error) {
	dictDir := filepath.Join(xdg.DataHome, "sbv2-onnx-server", "gojieba", "dict")
	if err := os.MkdirAll(dictDir, 0o755); err != nil {
		return "", fmt.Errorf("assets: failed to create dictionary directory %s: %w", dictDir, err)
	}
	return dictDir, nil
}

// EnsureDictionaries downloads any missing gojieba dictionary file into
// dictDir.
func EnsureDictionaries(ctx context.Context, dictDir string) error {
	for _, name := range jiebaDictFiles {
		dest := filepath.Join(dictDir, name)
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		if err := downloadFile(ctx, jiebaDictBaseURL+name, dest); err != nil {
			return fmt.Errorf("assets: failed to download %s: %w", name, err)
		}
	}
	return nil
}

// EnsureBertAssets downloads any missing required BERT asset file into
// modelDir from the pinned HuggingFace repo.
func EnsureBertAssets(ctx context.Context, modelDir string) error {
	allPresent := true
	for _, name := range requiredBertFiles {
		if _, err := os.Stat(filepath.Join(modelDir, name)); os.IsNotExist(err) {
			allPresent = false
			break
		}
	}
	if allPresent {
		return nil
	}

	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return fmt.Errorf("assets: failed to create model directory %s: %w", modelDir, err)
	}

	for _, name := range requiredBertFiles {
		dest := filepath.Join(modelDir, name)
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		url := fmt.Sprintf("https://huggingface.co/%s/resolve/main/%s", chineseBertRepo, name)
		if err := downloadFile(ctx, url, dest); err != nil {
			return fmt.Errorf("assets: failed to download %s: %w", name, err)
		}
	}
	return nil
}

// ResolveBertDir mirrors the reference layout's fallback: either
// bertRoot already contains the model directly, or it's one level above
// a conventionally-named subdirectory.
func ResolveBertDir(bertRoot string) string {
	if _, err := os.Stat(filepath.Join(bertRoot, "model_fp16.onnx")); err == nil {
		return bertRoot
	}
	return filepath.Join(bertRoot, "chinese-roberta-wwm-ext-large-onnx")
}

// downloadFile fetches url into destPath, writing to a temp file first
// and renaming atomically so a crash mid-download never leaves a
// partial file at destPath.
func downloadFile(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("assets: failed to build request for %s: %w", url, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("assets: failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("assets: HTTP %d downloading %s", resp.StatusCode, url)
	}

	tmpPath := destPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("assets: failed to create %s: %w", tmpPath, err)
	}
	defer func() {
		out.Close()
		os.Remove(tmpPath)
	}()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("assets: failed to write %s: %w", tmpPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("assets: failed to close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("assets: failed to rename %s to %s: %w", tmpPath, destPath, err)
	}
	return nil
}
