// Package logging builds the zap logger shared by every component.
package logging

import (
	"go.uber.org/zap"
)

// New returns a development logger when debug is set and a production JSON
// logger otherwise. A non-empty path redirects output to that file, which the
// terminal UI needs because it owns stdout.
func New(debug bool, path string) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	if path != "" {
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
	}
	return cfg.Build()
}

// NewForTUI logs to path when one is given and discards output otherwise.
func NewForTUI(debug bool, path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	return New(debug, path)
}
