package logger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	logFlushInterval  = 2 * time.Second
	recentErrorsLimit = 50
)

// Logger writes structured launch logs to a per-process file. It keeps a
// bounded in-memory tail of warn/error lines so they can be replayed to
// stderr when the process exits non-zero.
type Logger struct {
	mu     sync.Mutex
	zl     zerolog.Logger
	file   *os.File
	writer *bufio.Writer
	path   string
	errs   []string

	lastFlush time.Time
}

// NewLogger creates a log file under the log directory, named
// <tool>-<pid>-<timestamp>.log so stale files can be matched back to the
// process that wrote them.
func NewLogger() (*Logger, error) {
	return newLoggerAt(LogDir())
}

// LogDir returns the directory used for launch log files.
func LogDir() string {
	if dir := strings.TrimSpace(os.Getenv("EXPLAB_LOG_DIR")); dir != "" {
		return dir
	}
	return os.TempDir()
}

func newLoggerAt(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	name := fmt.Sprintf("%s-%d-%s.log", ToolName, os.Getpid(), time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	writer := bufio.NewWriter(file)
	zl := zerolog.New(zerolog.ConsoleWriter{
		Out:        writer,
		NoColor:    true,
		TimeFormat: "2006-01-02 15:04:05",
	}).With().Timestamp().Logger()

	return &Logger{
		zl:     zl,
		file:   file,
		writer: writer,
		path:   path,
	}, nil
}

// Path returns the log file path.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func (l *Logger) Debug(msg string) { l.log(zerolog.DebugLevel, msg) }
func (l *Logger) Info(msg string)  { l.log(zerolog.InfoLevel, msg) }

func (l *Logger) Warn(msg string) {
	l.log(zerolog.WarnLevel, msg)
	l.remember("WARN", msg)
}

func (l *Logger) Error(msg string) {
	l.log(zerolog.ErrorLevel, msg)
	l.remember("ERROR", msg)
}

func (l *Logger) log(level zerolog.Level, msg string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zl.WithLevel(level).Msg(msg)
	if time.Since(l.lastFlush) >= logFlushInterval {
		_ = l.writer.Flush()
		l.lastFlush = time.Now()
	}
}

func (l *Logger) remember(level, msg string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, fmt.Sprintf("%s: %s", level, msg))
	if len(l.errs) > recentErrorsLimit {
		l.errs = l.errs[len(l.errs)-recentErrorsLimit:]
	}
}

// ExtractRecentErrors returns up to n of the most recent warn/error lines.
func (l *Logger) ExtractRecentErrors(n int) []string {
	if l == nil || n <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.errs) <= n {
		return append([]string(nil), l.errs...)
	}
	return append([]string(nil), l.errs[len(l.errs)-n:]...)
}

// Flush forces buffered log lines to disk.
func (l *Logger) Flush() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.writer.Flush()
	_ = l.file.Sync()
}

// Close flushes and closes the underlying file. The file is left on disk;
// callers decide whether to remove it afterwards.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	flushErr := l.writer.Flush()
	closeErr := l.file.Close()
	l.file = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// RemoveLogFile deletes the log file. Call after Close on clean exits.
func (l *Logger) RemoveLogFile() error {
	if l == nil || l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
