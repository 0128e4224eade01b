// Package logger is the process-wide structured log. Engine transitions and
// storage events go to a rotated file under the config directory; --debug
// mirrors them to stderr.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/cadence/internal/constants"
)

// Rotation limits for the log file.
const (
	maxSizeMB  = 5
	maxFiles   = 5
	maxAgeDays = 30
)

// Logger starts out discarding everything until Init runs.
var Logger = log.New(io.Discard)

type Config struct {
	Debug     bool
	Level     string // ignored when Debug is set
	ConfigDir string
}

// Init replaces Logger with one writing to <ConfigDir>/logs/cadence.log.
func Init(cfg Config) error {
	dir := filepath.Join(cfg.ConfigDir, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var w io.Writer = &lumberjack.Logger{
		Filename:   filepath.Join(dir, constants.DefaultLogName),
		MaxSize:    maxSizeMB,
		MaxBackups: maxFiles,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	level := parseLevel(cfg.Level)
	if cfg.Debug {
		level = log.DebugLevel
		w = io.MultiWriter(os.Stderr, w)
	}

	Logger = log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          constants.AppName,
		ReportTimestamp: true,
		ReportCaller:    cfg.Debug,
		CallerOffset:    1,
	})
	return nil
}

// NewWriterLogger returns a logger writing to w at the given level. It does
// not replace the global logger.
func NewWriterLogger(w io.Writer, level string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:  parseLevel(level),
		Prefix: constants.AppName,
	})
}

// parseLevel falls back to warn for empty or unknown names.
func parseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return log.WarnLevel
	}
	return lvl
}

func emit(level log.Level, msg string, keyvals []interface{}) {
	if Logger == nil {
		return
	}
	Logger.Log(level, msg, keyvals...)
}

func Debug(msg string, keyvals ...interface{}) { emit(log.DebugLevel, msg, keyvals) }
func Info(msg string, keyvals ...interface{})  { emit(log.InfoLevel, msg, keyvals) }
func Warn(msg string, keyvals ...interface{})  { emit(log.WarnLevel, msg, keyvals) }
func Error(msg string, keyvals ...interface{}) { emit(log.ErrorLevel, msg, keyvals) }
