package app

import (
	"fmt"
	"os"

	"github.com/relabs-tech/shakaar/internal/config"
	"github.com/relabs-tech/shakaar/internal/logging"
)

// newLogger builds the process logger from LOG_LEVEL and LOG_FILE.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.LogFile != "" {
		return logging.NewFileLogger(cfg.LogFile, level)
	}
	return logging.New(os.Stderr, level), nil
}
