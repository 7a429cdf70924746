package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	Logger   *logrus.Logger // Main logger instance
	initOnce sync.Once
)

// Initialize sets up the logger. Output goes to logs/pawpack.log unless LOG_OUTPUT=stdout.
func Initialize() {
	initOnce.Do(initialize)
}

func initialize() {
	l := logrus.New()
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableColors:   true,
	})
	l.SetReportCaller(true)

	output, target := openOutput(os.Getenv("LOG_OUTPUT"))
	l.SetOutput(output)

	Logger = l

	Logger.WithFields(logrus.Fields{
		"api_logs":  "stdout (simple text)",
		"app_logs":  target,
		"log_level": level.String(),
	}).Info("Logging system initialized")
}

func parseLevel(logLevel string) logrus.Level {
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		return logrus.DebugLevel
	case "INFO":
		return logrus.InfoLevel
	case "WARN":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func openOutput(mode string) (io.Writer, string) {
	if mode == "stdout" {
		return os.Stdout, "stdout"
	}

	logsDir := "logs"
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		fmt.Printf("Failed to create logs directory: %v\n", err)
		return os.Stdout, "stdout"
	}

	path := fmt.Sprintf("%s/pawpack.log", logsDir)
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		fmt.Printf("Failed to open log file: %v\n", err)
		return os.Stdout, "stdout"
	}
	return logFile, path
}

// GetLogger returns the configured main logger instance
func GetLogger() *logrus.Logger {
	Initialize()
	return Logger
}

// WithContext creates a logger with additional context fields
func WithContext(fields map[string]interface{}) *logrus.Entry {
	return GetLogger().WithFields(fields)
}

// WithGeneration creates a logger scoped to one generation subject ("question" or "alert")
func WithGeneration(subjectType string, subjectID uint) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"component":    "ai_generation",
		"subject_type": subjectType,
		"subject_id":   subjectID,
	})
}

// WithUser creates a logger with user context
func WithUser(userID uint) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"user_id":   userID,
		"component": "controller",
	})
}

// WithError creates a logger with error context
func WithError(err error, component string) *logrus.Entry {
	fields := logrus.Fields{
		"error":     err.Error(),
		"component": component,
	}

	if GetLogger().GetLevel() >= logrus.DebugLevel {
		fields["stack_trace"] = getStackTrace()
	}

	return GetLogger().WithFields(fields)
}

func getStackTrace() string {
	var stack []string
	for i := 1; i < 10; i++ {
		if pc, file, line, ok := runtime.Caller(i); ok {
			fn := runtime.FuncForPC(pc)
			stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		}
	}
	return strings.Join(stack, "\n")
}

func Debug(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Debug(msg)
}

func Info(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Info(msg)
}

func Warn(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Warn(msg)
}

func Error(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Error(msg)
}

func Fatal(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Fatal(msg)
}
