// Package logging provides leveled, component-tagged logging to the console
// and to a size-rotated file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/paths"
)

// Level represents a logging level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	levelOff
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level. Unknown strings mean info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is a key-value pair attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Config holds logger configuration
type Config struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	File       string `mapstructure:"file"`        // log file path (empty = default under the data dir)
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // max size before rotation
	MaxBackups int    `mapstructure:"max_backups"` // rotated files to keep
	Console    bool   `mapstructure:"console"`     // also write to stderr
}

// DefaultConfig returns default logging configuration
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 5,
		Console:    true,
	}
}

// Logger writes log lines. Loggers derived with With share the parent's
// output and level.
type Logger struct {
	out    *output
	fields []Field
}

type output struct {
	mu         sync.Mutex
	level      Level
	file       *os.File
	filePath   string
	maxSize    int64
	maxBackups int
	console    io.Writer
}

// New creates a Logger that appends to cfg.File, creating its directory.
func New(cfg Config) (*Logger, error) {
	out := &output{
		level:      ParseLevel(cfg.Level),
		maxSize:    int64(cfg.MaxSizeMB) * 1024 * 1024,
		maxBackups: cfg.MaxBackups,
	}
	if out.maxSize <= 0 {
		out.maxSize = 10 * 1024 * 1024
	}
	if out.maxBackups <= 0 {
		out.maxBackups = 5
	}
	if cfg.Console {
		out.console = os.Stderr
	}

	file := cfg.File
	if file == "" {
		file = paths.LogPath()
	}
	file, err := paths.ExpandHome(file)
	if err != nil {
		return nil, err
	}
	out.filePath = file

	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	if err := out.openFile(); err != nil {
		return nil, err
	}

	return &Logger{out: out}, nil
}

// NewWriter creates a Logger that writes only to w.
func NewWriter(w io.Writer, level string) *Logger {
	return &Logger{out: &output{level: ParseLevel(level), console: w}}
}

// Nop returns a logger that discards all output
func Nop() *Logger {
	return &Logger{out: &output{level: levelOff}}
}

// With returns a logger that adds fields to every line.
func (l *Logger) With(fields ...Field) *Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{out: l.out, fields: merged}
}

func (o *output) openFile() error {
	f, err := os.OpenFile(o.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("unable to open log file: %w", err)
	}
	o.file = f
	return nil
}

func (o *output) rotateIfNeeded() error {
	if o.file == nil {
		return nil
	}
	info, err := o.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < o.maxSize {
		return nil
	}

	o.file.Close()
	o.file = nil
	if err := rotateFiles(o.filePath, o.maxBackups); err != nil {
		return err
	}
	return o.openFile()
}

func (l *Logger) log(level Level, component, msg string, err error, fields ...Field) {
	o := l.out
	o.mu.Lock()
	defer o.mu.Unlock()

	if level < o.level {
		return
	}

	if rotErr := o.rotateIfNeeded(); rotErr != nil {
		fmt.Fprintf(os.Stderr, "log rotation error: %v\n", rotErr)
	}

	var sb strings.Builder
	sb.WriteString(time.Now().Format(time.RFC3339))
	sb.WriteString(" [")
	sb.WriteString(level.String())
	sb.WriteString("] [")
	sb.WriteString(component)
	sb.WriteString("] ")
	sb.WriteString(msg)

	if err != nil {
		sb.WriteString(" | error=")
		sb.WriteString(err.Error())
	}
	for _, f := range l.fields {
		writeField(&sb, f)
	}
	for _, f := range fields {
		writeField(&sb, f)
	}
	sb.WriteString("\n")
	line := []byte(sb.String())

	if o.console != nil {
		o.console.Write(line)
	}
	if o.file != nil {
		o.file.Write(line)
	}
}

func writeField(sb *strings.Builder, f Field) {
	sb.WriteString(" | ")
	sb.WriteString(f.Key)
	sb.WriteString("=")
	sb.WriteString(fmt.Sprintf("%v", f.Value))
}

// Debug logs a debug message
func (l *Logger) Debug(component, msg string, fields ...Field) {
	l.log(LevelDebug, component, msg, nil, fields...)
}

// Info logs an info message
func (l *Logger) Info(component, msg string, fields ...Field) {
	l.log(LevelInfo, component, msg, nil, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(component, msg string, fields ...Field) {
	l.log(LevelWarn, component, msg, nil, fields...)
}

// Error logs an error message with an error
func (l *Logger) Error(component, msg string, err error, fields ...Field) {
	l.log(LevelError, component, msg, err, fields...)
}

// Close closes the log file
func (l *Logger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if l.out.file != nil {
		err := l.out.file.Close()
		l.out.file = nil
		return err
	}
	return nil
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() Level {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	return l.out.level
}

// SetLevel sets the log level
func (l *Logger) SetLevel(level Level) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.level = level
}

// FilePath returns the log file path, or "" for writer-only loggers.
func (l *Logger) FilePath() string {
	return l.out.filePath
}
