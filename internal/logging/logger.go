// Package logging provides config-driven categorized file logging for
// redline. Logs land in <workspace>/.redline/logs/ with one file per
// category per day. When debug mode is off the whole package is a
// silent no-op, so call sites never guard their log statements.
package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/system.
type Category string

const (
	CategoryBoot    Category = "boot"    // startup and shutdown
	CategoryServer  Category = "server"  // HTTP façade
	CategoryExtract Category = "extract" // directive extraction
	CategoryApply   Category = "apply"   // batch scheduling and patching
	CategoryStore   Category = "store"   // remote store round-trips
	CategoryAPI     Category = "api"     // LLM API calls
	CategorySession Category = "session" // conversation history
	CategoryDeploy  Category = "deploy"  // deployment status polling
)

// Options controls logging behavior; the zero value disables logging.
type Options struct {
	DebugMode  bool
	Level      string // debug, info, warn, error
	JSONFormat bool
	Categories map[string]bool // nil = all enabled
}

// Log levels.
const (
	levelDebug = 0
	levelInfo  = 1
	levelWarn  = 2
	levelError = 3
)

// entry is the JSON form of one log line.
type entry struct {
	Timestamp int64  `json:"ts"`
	Category  string `json:"cat"`
	Level     string `json:"lvl"`
	Message   string `json:"msg"`
}

// Logger writes to one category's log file.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	opts      Options
	optsMu    sync.RWMutex
	logLevel  int
)

// Initialize sets up the logging directory under the given workspace.
// Should be called once at startup; with DebugMode false it is a
// silent no-op.
func Initialize(workspace string, o Options) error {
	optsMu.Lock()
	opts = o
	switch o.Level {
	case "debug":
		logLevel = levelDebug
	case "warn", "warning":
		logLevel = levelWarn
	case "error":
		logLevel = levelError
	default:
		logLevel = levelInfo
	}
	optsMu.Unlock()

	if !o.DebugMode {
		return nil
	}
	if workspace == "" {
		workspace = "."
	}
	logsDir = filepath.Join(workspace, ".redline", "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	Boot("=== redline logging initialized ===")
	Boot("logs directory: %s, level: %s", logsDir, o.Level)
	return nil
}

// IsCategoryEnabled reports whether a category currently logs.
func IsCategoryEnabled(category Category) bool {
	optsMu.RLock()
	defer optsMu.RUnlock()

	if !opts.DebugMode {
		return false
	}
	if opts.Categories == nil {
		return true
	}
	enabled, exists := opts.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) the logger for a category. Disabled
// categories get a no-op logger.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) || logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, category))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] could not open %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

func (l *Logger) write(level int, name, format string, args ...interface{}) {
	if l.logger == nil || logLevel > level {
		return
	}
	msg := fmt.Sprintf(format, args...)

	optsMu.RLock()
	jsonFormat := opts.JSONFormat
	optsMu.RUnlock()

	if jsonFormat {
		data, err := json.Marshal(entry{
			Timestamp: time.Now().UnixMilli(),
			Category:  string(l.category),
			Level:     name,
			Message:   msg,
		})
		if err == nil {
			l.logger.Printf("%s", data)
			return
		}
	}
	l.logger.Printf("[%s] %s", name, msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.write(levelDebug, "DEBUG", format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.write(levelInfo, "INFO", format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write(levelWarn, "WARN", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(levelError, "ERROR", format, args...)
}

// CloseAll closes all open log files; call at shutdown.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// Timer measures an operation's duration and logs it on Stop.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// =============================================================================
// CONVENIENCE FUNCTIONS - quick logging without fetching a logger first
// =============================================================================

// Boot logs to the boot category.
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// Server logs to the server category.
func Server(format string, args ...interface{}) {
	Get(CategoryServer).Info(format, args...)
}

// ServerError logs an error to the server category.
func ServerError(format string, args ...interface{}) {
	Get(CategoryServer).Error(format, args...)
}

// Extract logs to the extract category.
func Extract(format string, args ...interface{}) {
	Get(CategoryExtract).Info(format, args...)
}

// ExtractDebug logs debug to the extract category.
func ExtractDebug(format string, args ...interface{}) {
	Get(CategoryExtract).Debug(format, args...)
}

// Apply logs to the apply category.
func Apply(format string, args ...interface{}) {
	Get(CategoryApply).Info(format, args...)
}

// ApplyWarn logs a warning to the apply category.
func ApplyWarn(format string, args ...interface{}) {
	Get(CategoryApply).Warn(format, args...)
}

// Store logs to the store category.
func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

// StoreDebug logs debug to the store category.
func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
}

// API logs to the api category.
func API(format string, args ...interface{}) {
	Get(CategoryAPI).Info(format, args...)
}

// Session logs to the session category.
func Session(format string, args ...interface{}) {
	Get(CategorySession).Info(format, args...)
}

// Deploy logs to the deploy category.
func Deploy(format string, args ...interface{}) {
	Get(CategoryDeploy).Info(format, args...)
}
