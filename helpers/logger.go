package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sjsage522/ebookdealworker/logger"
)

// LoggerInterface defines the interface for logger implementations
type LoggerInterface interface {
	LogError(platform string, err error)
	LogInfo(format string, args ...interface{})
}

// Logger appends per-platform failures to an error file and mirrors everything to zerolog
type Logger struct {
	errorFile string
}

// NewLogger creates a new logger instance. An empty errorFile disables the file.
func NewLogger(errorFile string) *Logger {
	return &Logger{
		errorFile: errorFile,
	}
}

// LogError logs an error to a file with platform name and timestamp
func (l *Logger) LogError(platform string, err error) {
	logger.ForPlatform(platform).Error().Err(err).Msg("platform failure")

	if l.errorFile == "" {
		return
	}
	if dir := filepath.Dir(l.errorFile); dir != "." {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			logger.Warn("failed to create error log directory: %v", mkErr)
			return
		}
	}

	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		logger.Warn("failed to open error log: %v", fileErr)
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] [%s] %s\n", timestamp, platform, err.Error())
}

// LogInfo logs an informational message
func (l *Logger) LogInfo(format string, args ...interface{}) {
	logger.Info(format, args...)
}
