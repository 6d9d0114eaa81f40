// Package logging provides categorized file-based debug logging for
// crocsthepen. Logs are written to <data dir>/logs/ with separate files per
// category. Logging is controlled by the debug flag in the config; when
// disabled, every call is a silent no-op.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup/initialization
	CategoryStore   Category = "store"   // Persistence reads/writes
	CategorySession Category = "session" // Session collection management
	CategoryLedger  Category = "ledger"  // Credit debits, claims, rewards
	CategoryGateway Category = "gateway" // Action state machine transitions
	CategoryAPI     Category = "api"     // Generation service calls
	CategoryLive    Category = "live"    // Live audio sessions
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	debugMode bool
	logLevel  = LevelInfo
)

// Initialize sets up the logging directory. Should be called once at startup
// with the resolved data directory. With debug false this is a no-op and all
// subsequent logging calls are silent.
func Initialize(dataDir string, debug bool) error {
	if dataDir == "" {
		return fmt.Errorf("data directory required")
	}

	debugMode = debug
	if !debugMode {
		return nil
	}
	logLevel = LevelDebug

	logsDir = filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== crocsthepen logging initialized ===")
	boot.Info("Logs directory: %s", logsDir)
	return nil
}

// IsDebugMode returns whether debug logging is enabled.
func IsDebugMode() bool {
	return debugMode
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode is disabled.
func Get(category Category) *Logger {
	if !debugMode || logsDir == "" {
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

	// Date prefix keeps rotation a matter of deleting old files.
	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, category))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
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

// Debug logs a debug message (only if level <= debug).
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs an informational message (only if level <= info).
func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs a warning message (only if level <= warn).
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error logs an error message (always logged if logger exists).
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

// Close flushes and closes all open log files.
func Close() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			_ = l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// PACKAGE-LEVEL CONVENIENCE HELPERS
// =============================================================================

// Store logs at info level to the store category.
func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

// StoreDebug logs at debug level to the store category.
func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
}

// Session logs at info level to the session category.
func Session(format string, args ...interface{}) {
	Get(CategorySession).Info(format, args...)
}

// SessionDebug logs at debug level to the session category.
func SessionDebug(format string, args ...interface{}) {
	Get(CategorySession).Debug(format, args...)
}

// Ledger logs at info level to the ledger category.
func Ledger(format string, args ...interface{}) {
	Get(CategoryLedger).Info(format, args...)
}

// Gateway logs at info level to the gateway category.
func Gateway(format string, args ...interface{}) {
	Get(CategoryGateway).Info(format, args...)
}

// GatewayDebug logs at debug level to the gateway category.
func GatewayDebug(format string, args ...interface{}) {
	Get(CategoryGateway).Debug(format, args...)
}

// API logs at info level to the api category.
func API(format string, args ...interface{}) {
	Get(CategoryAPI).Info(format, args...)
}

// Live logs at info level to the live category.
func Live(format string, args ...interface{}) {
	Get(CategoryLive).Info(format, args...)
}

// =============================================================================
// PERFORMANCE TIMING
// =============================================================================

// Timer measures the duration of an operation for a category log.
type Timer struct {
	category  Category
	operation string
	start     time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, operation: operation, start: time.Now()}
}

// Stop ends timing and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s took %v", t.operation, elapsed)
	return elapsed
}

// StopWithThreshold logs at warn level only when the operation exceeded the
// given threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("SLOW: %s took %v (threshold %v)", t.operation, elapsed, threshold)
	}
	return elapsed
}
