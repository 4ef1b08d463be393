// Package logger builds the structured logger of the launcher and the
// rotating output files of background jobs.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings, used when the configured value is not positive.
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes where logs go. Rotation parameters follow lumberjack
// semantics and apply to both the log file and job output files.
type Config struct {
	File       string // launcher log file; empty discards logs
	JobDir     string // directory for background job output; empty inherits the terminal
	Debug      bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New returns a text logger writing to the configured log file, tagged with
// the given session id, and the closer for the file. With no file configured
// the logger discards everything and the closer is a no-op.
func (c Config) New(session string) (*slog.Logger, io.Closer) {
	if c.File == "" {
		return slog.New(slog.DiscardHandler), io.NopCloser(nil)
	}

	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}

	w := c.rotating(c.File)

	logger := slog.New(
		slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}),
	).With("session", session)

	return logger, w
}

// JobWriters returns rotating writers for the stdout and stderr of a
// background job. Files are <JobDir>/<name>-<number>.stdout.log and
// <JobDir>/<name>-<number>.stderr.log, where name is the base name of the
// command. Both writers are nil when JobDir is empty.
func (c Config) JobWriters(name string, number int) (io.WriteCloser, io.WriteCloser, error) {
	if c.JobDir == "" {
		return nil, nil, nil
	}

	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || strings.TrimSpace(base) == "" {
		return nil, nil, fmt.Errorf("invalid job name %q", name)
	}

	prefix := filepath.Join(c.JobDir, fmt.Sprintf("%s-%d", base, number))

	return c.rotating(prefix + ".stdout.log"), c.rotating(prefix + ".stderr.log"), nil
}

func (c Config) rotating(path string) *lj.Logger {
	return &lj.Logger{
		Filename:   path,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
