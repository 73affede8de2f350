// Package onnxrt centralizes ONNX Runtime environment setup so the BERT
// and acoustic sessions (pkg/bertfeat, pkg/acoustic) don't race each
// other initializing the same process-wide runtime.
package onnxrt

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	once    sync.Once
	initErr error
)

// Init loads the onnxruntime shared library and initializes the
// environment exactly once per process. libraryPath may be empty to use
// the platform default search path.
func Init(libraryPath string) error {
	once.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			initErr = fmt.Errorf("onnxrt: failed to initialize environment: %w", err)
		}
	})
	return initErr
}
