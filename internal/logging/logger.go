// Package logging provides the structured logger shared by every component
// of the disk hygiene engine: Debug, Info, Warn, Error, Success, Count,
// Fatal plus f-variants, daily log files, and a logging.json level
// switchboard, backed by zerolog for structured, parseable lines and
// fatih/color for a readable console.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// LogSettings controls where logs go.
//
// Modes:
//   - NoLogs=true  => console-only (stdout), colorized. No log files created.
//   - NoLogs=false => write logs to daily files under LogDir.
type LogSettings struct {
	NoLogs bool
	LogDir string
}

var levelColor = map[string]*color.Color{
	"DEBUG":   color.New(color.FgHiBlack),
	"INFO":    color.New(color.FgCyan),
	"WARN":    color.New(color.FgYellow),
	"ERROR":   color.New(color.FgRed, color.Bold),
	"SUCCESS": color.New(color.FgGreen, color.Bold),
	"COUNT":   color.New(color.FgMagenta),
	"FATAL":   color.New(color.FgRed, color.Bold, color.BgBlack),
}

// Logger is a lightweight, goroutine-safe logger intended for:
//   - a single shared instance across the entire process
//   - safe concurrent writes from multiple goroutines (scan walkers + the
//     single processor goroutine)
//
// Thread safety model:
//   - All file writes are guarded by mu to prevent log line interleaving.
//   - In NoLogs mode we write to stdout through zerolog's console writer;
//     zerolog serializes a single writer internally but concurrent processes
//     writing to the same fd can still interleave.
type Logger struct {
	// ConfigDir is where we look for logging.json (enabled/disabled levels).
	ConfigDir string

	settings LogSettings
	levels   map[string]bool

	console zerolog.Logger
	mu      sync.Mutex
}

// New initializes a Logger.
//
//   - Reads configDir/logging.json (if present) to determine enabled levels.
//   - If missing, sensible defaults are used (see loadLevels).
//   - If settings.NoLogs is false, settings.LogDir must be set and is
//     created eagerly so permission problems surface at startup rather than
//     mid-scan.
func New(configDir string, settings LogSettings) (*Logger, error) {
	levels, err := loadLevels(configDir)
	if err != nil {
		return nil, err
	}

	if !settings.NoLogs {
		if settings.LogDir == "" {
			return nil, fmt.Errorf("log dir is empty (settings.LogDir)")
		}
		if err := os.MkdirAll(settings.LogDir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	console := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "01/02/06 15:04:05",
		NoColor:    color.NoColor,
	}).With().Timestamp().Logger()

	return &Logger{
		ConfigDir: configDir,
		settings:  settings,
		levels:    levels,
		console:   console,
	}, nil
}

// loadLevels loads level enable/disable configuration from logging.json.
//
// If logging.json does not exist, default levels are returned: INFO/WARN/
// ERROR/SUCCESS/COUNT/FATAL enabled, DEBUG disabled (to keep scheduled runs
// quiet). Unknown levels fail open in Enabled, so a new level is never
// silently dropped before logging.json catches up.
func loadLevels(configDir string) (map[string]bool, error) {
	path := filepath.Join(configDir, "logging.json")

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{
				"DEBUG":   false,
				"COUNT":   true,
				"INFO":    true,
				"WARN":    true,
				"ERROR":   true,
				"SUCCESS": true,
				"FATAL":   true,
			}, nil
		}
		return nil, fmt.Errorf("stat logging config: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read logging config: %w", err)
	}

	var levels map[string]bool
	if err := json.Unmarshal(b, &levels); err != nil {
		return nil, fmt.Errorf("parse logging config: %w", err)
	}
	return levels, nil
}

// Enabled returns whether a log level is enabled. A level absent from
// logging.json is treated as enabled (fail-open).
func (l *Logger) Enabled(level string) bool {
	level = strings.ToUpper(strings.TrimSpace(level))

	enabled, ok := l.levels[level]
	if ok && !enabled {
		return false
	}
	return true
}

// Log writes a single log line to either stdout (NoLogs mode, colorized) or
// daily log files.
//
// File mode behavior:
//   - every line goes to diskhygiene_YYYY-MM-DD.log
//   - COUNT lines are duplicated into count_YYYY-MM-DD.log
//   - ERROR lines are duplicated into errors_YYYY-MM-DD.log
//
// Thread safety: file writes are guarded by l.mu so multiple goroutines
// can't interleave lines within one Log call.
func (l *Logger) Log(level, msg string) {
	level = strings.ToUpper(strings.TrimSpace(level))

	if !l.Enabled(level) {
		return
	}

	if l.settings.NoLogs {
		c, ok := levelColor[level]
		tag := level
		if ok {
			tag = c.Sprint(level)
		}
		l.console.Log().Msg(fmt.Sprintf("[%s] -> %s", tag, msg))
		return
	}

	now := time.Now()
	date := now.Format("2006-01-02")
	mainFile := filepath.Join(l.settings.LogDir, fmt.Sprintf("diskhygiene_%s.log", date))

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := writeStructuredLine(mainFile, level, msg, now); err != nil {
		fmt.Printf("error writing to log file: %v\n", err)
		return
	}

	if level == "COUNT" {
		countFile := filepath.Join(l.settings.LogDir, fmt.Sprintf("count_%s.log", date))
		if err := writeStructuredLine(countFile, level, msg, now); err != nil {
			fmt.Printf("error writing to count log file: %v\n", err)
			return
		}
	}

	if level == "ERROR" {
		errorFile := filepath.Join(l.settings.LogDir, fmt.Sprintf("errors_%s.log", date))
		if err := writeStructuredLine(errorFile, level, msg, now); err != nil {
			fmt.Printf("error writing to error log file: %v\n", err)
			return
		}
	}
}

// writeStructuredLine appends one JSON log line via zerolog, opening and
// closing the file per call (simple and robust; throughput has never been a
// bottleneck for a scan's log volume).
func writeStructuredLine(path, level, msg string, ts time.Time) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	return logLine(f, level, msg, ts)
}

func logLine(w io.Writer, level, msg string, ts time.Time) error {
	logger := zerolog.New(w).With().Timestamp().Logger()
	logger.Log().Str("level", level).Time("ts", ts).Msg(msg)
	return nil
}

// Convenience methods avoid passing level strings everywhere and make it
// easy to rename levels later without touching call sites.
func (l *Logger) Debug(msg string)   { l.Log("DEBUG", msg) }
func (l *Logger) Info(msg string)    { l.Log("INFO", msg) }
func (l *Logger) Warn(msg string)    { l.Log("WARN", msg) }
func (l *Logger) Error(msg string)   { l.Log("ERROR", msg) }
func (l *Logger) Success(msg string) { l.Log("SUCCESS", msg) }
func (l *Logger) Count(msg string)   { l.Log("COUNT", msg) }

// Fatal logs the message and exits the process with code 1. os.Exit skips
// deferred cleanups, so reserve this for unrecoverable startup states (the
// index file cannot be opened, the trash directory cannot be created).
func (l *Logger) Fatal(msg string) { l.Log("FATAL", msg); os.Exit(1) }

func (l *Logger) Debugf(format string, args ...any)   { l.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)    { l.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)    { l.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any)   { l.Error(fmt.Sprintf(format, args...)) }
func (l *Logger) Successf(format string, args ...any) { l.Success(fmt.Sprintf(format, args...)) }
func (l *Logger) Countf(format string, args ...any)   { l.Count(fmt.Sprintf(format, args...)) }
func (l *Logger) Fatalf(format string, args ...any)   { l.Fatal(fmt.Sprintf(format, args...)) }
