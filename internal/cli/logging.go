package cli

import (
	"fmt"
	"io"
	"os"

	"notes-tui/internal/config"

	"github.com/sirupsen/logrus"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger builds the process logger. The interactive browser never logs to
// the terminal it draws on: without a log file its output is discarded.
func newLogger(cfg config.Config, interactive bool, stderr io.Writer) (*logrus.Logger, io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(f)
		return log, f, nil
	case interactive:
		log.SetOutput(io.Discard)
	default:
		log.SetOutput(stderr)
	}
	return log, nopCloser{}, nil
}
