package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
)

const (
	LevelTrace = slog.Level(-8)
	// LevelNone is above every level a record is written at.
	LevelNone = slog.Level(12)
)

// ParseLevel maps a -log-level value to a slog level. Unknown names mean none.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return LevelNone
	}
}

// File is an append-only log file that can be reopened after rotation.
type File struct {
	path string
	mu   sync.Mutex
	fh   *os.File
	sigs chan os.Signal
}

func OpenFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for '%s': %w", path, err)
	}
	f := &File{path: path}
	if err := f.Reopen(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fh == nil {
		return 0, os.ErrClosed
	}
	return f.fh.Write(p)
}

// Reopen closes the current handle and opens the path again, picking up a
// fresh file after the old one was moved away.
func (f *File) Reopen() error {
	fh, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file '%s': %w", f.path, err)
	}
	f.mu.Lock()
	old := f.fh
	f.fh = fh
	f.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// ReopenOnHangup reopens the file on every SIGHUP until Close.
//
//	mv formula.log formula.bak && kill -HUP <pid>
func (f *File) ReopenOnHangup() {
	f.sigs = make(chan os.Signal, 1)
	signal.Notify(f.sigs, syscall.SIGHUP)
	go func(sigs chan os.Signal) {
		for range sigs {
			if err := f.Reopen(); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
	}(f.sigs)
}

func (f *File) Close() error {
	if f.sigs != nil {
		signal.Stop(f.sigs)
		close(f.sigs)
		f.sigs = nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fh == nil {
		return nil
	}
	err := f.fh.Close()
	f.fh = nil
	return err
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a JSON logger at level writing to path, or to stderr when path
// is empty. The returned closer releases the file.
func New(level, path string) (*slog.Logger, io.Closer, error) {
	return newLogger(level, path, os.Stderr)
}

func newLogger(level, path string, fallback io.Writer) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if path == "" {
		return slog.New(slog.NewJSONHandler(fallback, opts)), nopCloser{}, nil
	}
	f, err := OpenFile(path)
	if err != nil {
		return slog.New(slog.NewJSONHandler(fallback, opts)), nopCloser{}, err
	}
	f.ReopenOnHangup()
	return slog.New(slog.NewJSONHandler(f, opts)), f, nil
}
