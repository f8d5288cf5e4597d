package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

type Options struct {
	Level     string
	File      string
	MaxSizeMB int
	MaxFiles  int
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the process logger. Records go to fallback as text unless a log
// file is configured, in which case they are written as JSON to a rotating
// file. The returned closer releases the file.
func New(opts Options, fallback io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if opts.File == "" {
		base := slog.NewTextHandler(fallback, handlerOpts)
		return slog.New(NewRedactingHandler(base)), nopCloser{}, nil
	}

	writer, err := NewRotatingWriter(RotationConfig{
		File:      opts.File,
		MaxSizeMB: opts.MaxSizeMB,
		MaxFiles:  opts.MaxFiles,
	})
	if err != nil {
		return nil, nil, err
	}
	base := slog.NewJSONHandler(writer, handlerOpts)
	return slog.New(NewRedactingHandler(base)), writer, nil
}

func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", raw)
	}
}
