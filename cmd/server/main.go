// Command server runs the Chinese Style-Bert-VITS2 ONNX inference HTTP
// service: it materializes the segmentation/BERT assets if missing,
// loads the acoustic and BERT ONNX sessions, and serves the speech API.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Rorical/sbv2-onnx-server/internal/assets"
	"github.com/Rorical/sbv2-onnx-server/internal/config"
	"github.com/Rorical/sbv2-onnx-server/internal/httpapi"
	"github.com/Rorical/sbv2-onnx-server/internal/logging"
	"github.com/Rorical/sbv2-onnx-server/internal/onnxrt"
	"github.com/Rorical/sbv2-onnx-server/pkg/acoustic"
	"github.com/Rorical/sbv2-onnx-server/pkg/bertfeat"
	"github.com/Rorical/sbv2-onnx-server/pkg/infer"
	"github.com/Rorical/sbv2-onnx-server/pkg/synth"
	"github.com/Rorical/sbv2-onnx-server/pkg/zhg2p"
)

var rootCmd = &cobra.Command{
	Use:   "sbv2-onnx-server",
	Short: "Chinese Style-Bert-VITS2 ONNX inference server",
	RunE:  runServer,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("model", "", "Path to the Style-Bert-VITS2 acoustic ONNX model")
	flags.String("config", "", "Path to config.json for the acoustic model")
	flags.String("style-vectors", "", "Path to style_vectors.npy")
	flags.String("bert-root", "", "Root directory for the Chinese BERT ONNX export")
	flags.String("onnx-library", "", "Path to the onnxruntime shared library (optional)")
	flags.String("listen", "", "Address to bind the HTTP server to")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("server-config", "", "Path to a server.yaml config file; flags/env override its values")

	for _, name := range []string{"model", "config", "style-vectors", "bert-root", "onnx-library", "listen", "log-level", "server-config"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
	viper.SetEnvPrefix("SBV2")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	modelPath := viper.GetString("model")
	configPath := viper.GetString("config")
	styleVecPath := viper.GetString("style-vectors")
	bertRoot := viper.GetString("bert-root")
	libraryPath := viper.GetString("onnx-library")
	listen := viper.GetString("listen")
	logLevel := viper.GetString("log-level")

	if serverConfigPath := viper.GetString("server-config"); serverConfigPath != "" {
		fileCfg, err := config.LoadServerConfig(serverConfigPath)
		if err != nil {
			return err
		}
		if modelPath == "" {
			modelPath = fileCfg.Assets.ModelPath
		}
		if configPath == "" {
			configPath = fileCfg.Assets.ConfigPath
		}
		if styleVecPath == "" {
			styleVecPath = fileCfg.Assets.StyleVectorPath
		}
		if bertRoot == "" {
			bertRoot = fileCfg.Assets.BertRoot
		}
		if libraryPath == "" {
			libraryPath = fileCfg.Assets.OnnxLibraryPath
		}
		if listen == "" {
			listen = fileCfg.Listen
		}
		if logLevel == "" {
			logLevel = fileCfg.LogLevel
		}
	}
	if listen == "" {
		listen = ":8080"
	}
	if logLevel == "" {
		logLevel = "info"
	}

	level, err := parseLevel(logLevel)
	if err != nil {
		return err
	}
	logging.SetLogger(logging.Logger().Level(level))
	log := logging.Logger()

	if modelPath == "" || configPath == "" || styleVecPath == "" || bertRoot == "" {
		return fmt.Errorf("--model, --config, --style-vectors and --bert-root are all required (directly or via --server-config)")
	}

	ctx := context.Background()

	dictDir, err := assets.EnsureDictDir()
	if err != nil {
		return err
	}
	if err := assets.EnsureDictionaries(ctx, dictDir); err != nil {
		return err
	}

	bertDir := assets.ResolveBertDir(bertRoot)
	if err := assets.EnsureBertAssets(ctx, bertDir); err != nil {
		return err
	}

	if err := onnxrt.Init(libraryPath); err != nil {
		return err
	}

	segmenter := zhg2p.NewSegmenter(
		filepath.Join(dictDir, "jieba.dict.utf8"),
		filepath.Join(dictDir, "hmm_model.utf8"),
		filepath.Join(dictDir, "user.dict.utf8"),
		filepath.Join(dictDir, "idf.utf8"),
		filepath.Join(dictDir, "stop_words.utf8"),
	)
	defer segmenter.Close()
	g2pEngine := zhg2p.NewEngine(segmenter)

	bertExtractor, err := bertfeat.New(bertDir, libraryPath)
	if err != nil {
		return fmt.Errorf("failed to load BERT model: %w", err)
	}
	defer bertExtractor.Close()

	acousticSession, err := acoustic.New(modelPath, libraryPath)
	if err != nil {
		return fmt.Errorf("failed to load acoustic model: %w", err)
	}
	defer acousticSession.Close()

	project, err := infer.Load(configPath, styleVecPath, acousticSession, bertExtractor, g2pEngine)
	if err != nil {
		return fmt.Errorf("failed to initialize TTS project: %w", err)
	}

	synthesizer := synth.New(project)
	server := httpapi.NewServer(synthesizer, project)

	log.Info().Str("addr", listen).Msg("listening")
	return server.Router().Run(listen)
}

func parseLevel(level string) (zerolog.Level, error) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return parsed, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return parsed, nil
}
