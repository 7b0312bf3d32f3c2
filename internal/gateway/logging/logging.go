// Package logging points the standard logger at stderr and, optionally, a
// rotating file.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB  = 15
	maxBackups = 3
	maxAgeDays = 28
)

// Setup sends log output to console and, when path is set, to a rotating
// file as well. A nil console discards everything not going to the file.
// The returned closer releases the file.
func Setup(path string, console io.Writer) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if console == nil {
		console = io.Discard
	}
	path = strings.TrimSpace(path)
	if path == "" {
		log.SetOutput(console)
		return nopCloser{}
	}
	if dir := filepath.Dir(path); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	file := NewRotatingWriter(path)
	log.SetOutput(io.MultiWriter(console, file))
	log.Printf("logging: writing to %s", path)
	return file
}

// NewRotatingWriter returns a size-rotated, compressed log file.
func NewRotatingWriter(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
