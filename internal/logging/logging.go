// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ramanasai/brain/internal/config"
)

// Options selects where and how much to log.
type Options struct {
	Level string
	// File receives the log; empty means config.DefaultLogFile.
	File string
	// Verbose logs to Stderr at debug level instead of the file.
	Verbose bool
	Stderr  io.Writer
}

// New returns the logger and a close func for its file.
func New(o Options) (*slog.Logger, func() error, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(o.Level))); err != nil {
		lvl = slog.LevelInfo
	}
	noop := func() error { return nil }

	if o.Verbose {
		w := o.Stderr
		if w == nil {
			w = os.Stderr
		}
		h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
		return slog.New(h), noop, nil
	}

	path := o.File
	if path == "" {
		p, err := config.DefaultLogFile()
		if err != nil {
			return nil, noop, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, noop, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, noop, err
	}
	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl})
	return slog.New(h), f.Close, nil
}

// Discard is a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
