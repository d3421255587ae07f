package sss

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
	// Format is "text", "json" or "auto". Auto picks coloured text on a
	// terminal and JSON otherwise.
	Format string `toml:"format" yaml:"format"`
}

// NewLogger builds a logger writing to out.
func NewLogger(config LogConfig, out *os.File) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(out)

	level := logrus.InfoLevel
	if config.Level != "" {
		l, err := logrus.ParseLevel(config.Level)
		if err != nil {
			return nil, fmt.Errorf("Failed to parse log level: %w", err)
		}
		level = l
	}
	log.SetLevel(level)

	switch strings.ToLower(config.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	case "", "auto":
		if isTerminal(out) {
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
		} else {
			log.SetFormatter(&logrus.JSONFormatter{})
		}
	default:
		return nil, fmt.Errorf("Unknown log format %q", config.Format)
	}
	return log, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
