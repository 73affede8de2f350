// Package logging holds this module's single package-level logger.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// SetLogger replaces the package-level logger, e.g. to change level or
// output format at startup.
func SetLogger(l zerolog.Logger) {
	logger = l
}

// Logger returns the package-level logger.
func Logger() zerolog.Logger {
	return logger
}
