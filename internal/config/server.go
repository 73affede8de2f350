package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// ServerConfig is this module's runtime configuration: where to listen,
// where the model assets live on disk, and how verbosely to log.
type ServerConfig struct {
	Listen string `yaml:"listen"`
	Assets struct {
		ModelPath       string `yaml:"model_path"`
		ConfigPath      string `yaml:"config_path"`
		StyleVectorPath string `yaml:"style_vector_path"`
		BertRoot        string `yaml:"bert_root"`
		OnnxLibraryPath string `yaml:"onnx_library_path"`
	} `yaml:"assets"`
	LogLevel string `yaml:"log_level"`
}

const (
	defaultListen   = ":8080"
	defaultLogLevel = "info"
)

// LoadServerConfig reads server.yaml-shaped configuration, filling in
// the listen address and log level when the file omits them.
func LoadServerConfig(path string) (*ServerConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read server config %s: %w", path, err)
	}

	var cfg ServerConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse server config %s: %w", path, err)
	}

	if cfg.Listen == "" {
		cfg.Listen = defaultListen
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	return &cfg, nil
}
