package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const defaultPrefix = "app"

// RotatingLogger writes to one log file per ISO week, starting a numbered
// file when the size limit is hit, and removes files past the retention period
type RotatingLogger struct {
	logDir      string
	prefix      string
	numbered    *regexp.Regexp
	currentFile *os.File
	currentWeek string
	retention   time.Duration
	maxFileSize int64
	currentSize atomic.Int64
	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	cleanupDone chan struct{}
}

// NewRotatingLogger creates a rotating logger with the default 100MB size limit
func NewRotatingLogger(logDir, prefix string, retentionWeeks int) *RotatingLogger {
	return NewRotatingLoggerWithSizeLimit(logDir, prefix, retentionWeeks, 100*1024*1024)
}

// NewRotatingLoggerWithSizeLimit creates a rotating logger with a custom size limit.
// A zero maxFileSize disables size based rotation.
func NewRotatingLoggerWithSizeLimit(logDir, prefix string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	if prefix == "" {
		prefix = defaultPrefix
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RotatingLogger{
		logDir:      logDir,
		prefix:      prefix,
		numbered:    regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-\d{4}-W\d{2}_(\d{2})\.log$`),
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}
}

// getWeekKey returns the week key in YYYY-Www format (ISO week)
func getWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// doRotate opens the file for targetWeek (caller must hold mu)
func (rl *RotatingLogger) doRotate(targetWeek string, sizeExceeded bool) error {
	if rl.currentFile != nil {
		if err := rl.currentFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file during rotation: %v\n", err)
		}
		rl.currentFile = nil
	}

	fileName := rl.pickFileName(targetWeek, sizeExceeded)
	logPath := filepath.Join(rl.logDir, fileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	rl.currentFile = file
	rl.currentWeek = targetWeek
	rl.currentSize.Store(0)
	if info, err := file.Stat(); err == nil {
		rl.currentSize.Store(info.Size())
	}

	return nil
}

// pickFileName returns the base week file while it has room, otherwise the
// newest numbered file with room, otherwise the next numbered file.
// A size triggered rotation always moves on to the next numbered file.
func (rl *RotatingLogger) pickFileName(targetWeek string, sizeExceeded bool) string {
	baseName := fmt.Sprintf("%s-%s.log", rl.prefix, targetWeek)

	if !sizeExceeded {
		info, err := os.Stat(filepath.Join(rl.logDir, baseName))
		if err != nil || rl.maxFileSize == 0 || info.Size() < rl.maxFileSize {
			return baseName
		}
	}

	highest, lastSize := rl.highestNumberedFile(targetWeek)
	if !sizeExceeded && highest > 0 && lastSize < rl.maxFileSize {
		return fmt.Sprintf("%s-%s_%02d.log", rl.prefix, targetWeek, highest)
	}

	return fmt.Sprintf("%s-%s_%02d.log", rl.prefix, targetWeek, highest+1)
}

func (rl *RotatingLogger) highestNumberedFile(targetWeek string) (int, int64) {
	pattern := filepath.Join(rl.logDir, fmt.Sprintf("%s-%s_??.log", rl.prefix, targetWeek))
	matches, _ := filepath.Glob(pattern)

	highest := 0
	var size int64
	for _, match := range matches {
		m := rl.numbered.FindStringSubmatch(filepath.Base(match))
		if len(m) < 2 {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		if num <= highest {
			continue
		}
		highest = num
		size = 0
		if info, err := os.Stat(match); err == nil {
			size = info.Size()
		}
	}

	return highest, size
}

// Write writes p to the current log file, rotating first when needed
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := getWeekKey(time.Now())
	sizeExceeded := rl.maxFileSize > 0 && rl.currentFile != nil &&
		rl.currentSize.Load()+int64(len(p)) > rl.maxFileSize

	if rl.currentFile == nil || rl.currentWeek != week || sizeExceeded {
		if err := rl.doRotate(week, sizeExceeded); err != nil {
			return 0, err
		}
	}

	n, err := rl.currentFile.Write(p)
	rl.currentSize.Add(int64(n))
	return n, err
}

// cleanupOldLogs removes this logger's files older than the retention period
func (rl *RotatingLogger) cleanupOldLogs() error {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-rl.retention)
	deleted := 0

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, rl.prefix+"-") || !strings.HasSuffix(name, ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(rl.logDir, name)); err == nil {
			deleted++
		}
	}

	if deleted > 0 {
		// console only, logging here would recurse into Write
		fmt.Fprintf(os.Stderr, "Cleaned up %d old log files\n", deleted)
	}

	return nil
}

func (rl *RotatingLogger) startCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(rl.cleanupDone)

		for {
			select {
			case <-rl.ctx.Done():
				return
			case <-ticker.C:
				if err := rl.cleanupOldLogs(); err != nil {
					fmt.Fprintf(os.Stderr, "failed to cleanup old logs: %v\n", err)
				}
			}
		}
	}()
}

// Close stops the background cleanup and closes the current file
func (rl *RotatingLogger) Close() error {
	rl.cancel()

	select {
	case <-rl.cleanupDone:
	case <-time.After(time.Second):
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.currentFile == nil {
		return nil
	}
	err := rl.currentFile.Close()
	rl.currentFile = nil
	return err
}

// SetupLogger builds a logger writing JSON to a rotating file and text to the
// console. It falls back to a console-only logger when the log directory is unusable.
func SetupLogger(opts Options) (*slog.Logger, *RotatingLogger) {
	consoleLevel := GetConsoleLogLevel(opts.Env, opts.Level, opts.Verbose)
	var console io.Writer = os.Stdout
	if opts.DisableConsole {
		console = io.Discard
	}
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{Level: consoleLevel})

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to create logs directory", "error", err)
		return logger, nil
	}

	retention := opts.RetentionWeeks
	if retention <= 0 {
		retention = 4
	}
	rotator := NewRotatingLoggerWithSizeLimit(opts.Dir, opts.Prefix, retention, opts.MaxFileSize)

	rotator.mu.Lock()
	err := rotator.doRotate(getWeekKey(time.Now()), false)
	rotator.mu.Unlock()
	if err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to initialize rotating logger", "error", err)
		return logger, nil
	}

	rotator.startCleanup(24 * time.Hour)

	fileHandler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: GetFileLogLevel()})

	return slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}), rotator
}

// multiHandler fans records out to several handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
