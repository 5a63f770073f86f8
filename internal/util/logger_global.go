package util

import (
	"context"
	"sync"
)

var (
	globalLogger LoggerInterface
	loggerOnce   sync.Once
)

// InitLogger initializes the global logger instance
func InitLogger(opts LoggerOptions) {
	loggerOnce.Do(func() {
		globalLogger = NewLogger(opts)
	})
}

// LoggerFor returns the global logger enriched with the context's trace id.
// It returns a discarding logger when InitLogger was never called.
func LoggerFor(ctx context.Context) LoggerInterface {
	if globalLogger == nil {
		return nopLogger
	}
	return globalLogger.WithContext(ctx)
}

var nopLogger LoggerInterface = &Logger{level: LevelError + 1, fields: map[string]interface{}{}}

func LogInfo(msg string) {
	if globalLogger != nil {
		globalLogger.Info(msg)
	}
}

func LogInfof(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.Infof(format, args...)
	}
}

func LogDebug(msg string) {
	if globalLogger != nil {
		globalLogger.Debug(msg)
	}
}

func LogDebugf(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.Debugf(format, args...)
	}
}

func LogWarn(msg string) {
	if globalLogger != nil {
		globalLogger.Warn(msg)
	}
}

func LogWarnf(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.Warnf(format, args...)
	}
}

func LogError(msg string) {
	if globalLogger != nil {
		globalLogger.Error(msg)
	}
}

func LogErrorf(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.Errorf(format, args...)
	}
}
