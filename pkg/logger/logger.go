package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

type Logger struct {
	zl zerolog.Logger
}

var globalLogger *Logger

// New returns a JSON logger writing to output (stdout when nil).
func New(output io.Writer, level LogLevel) *Logger {
	if output == nil {
		output = os.Stdout
	}
	zl := zerolog.New(output).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
	return &Logger{zl: zl}
}

// NewConsole returns a human-readable logger, used by the CLI.
func NewConsole(output io.Writer, level LogLevel) *Logger {
	if output == nil {
		output = os.Stderr
	}
	return New(zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}, level)
}

func Init() {
	globalLogger = New(os.Stdout, LevelInfo)
}

// SetGlobal replaces the package logger. Passing nil silences it.
func SetGlobal(l *Logger) {
	globalLogger = l
}

func parseLevel(level LogLevel) zerolog.Level {
	parsed, err := zerolog.ParseLevel(strings.ToLower(string(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return parsed
}

func (l *Logger) log(level zerolog.Level, action string, userID *string, details map[string]interface{}, err error) {
	event := l.zl.WithLevel(level).Str("action", action)
	if userID != nil {
		event = event.Str("user_id", *userID)
	}
	if err != nil {
		event = event.Err(err)
	}
	if len(details) > 0 {
		event = event.Interface("details", redactSensitiveFields(details))
	}
	event.Send()
}

func (l *Logger) Debug(action string, details map[string]interface{}) {
	l.log(zerolog.DebugLevel, action, nil, details, nil)
}

func (l *Logger) Info(action string, details map[string]interface{}) {
	l.log(zerolog.InfoLevel, action, nil, details, nil)
}

func (l *Logger) Warn(action string, details map[string]interface{}) {
	l.log(zerolog.WarnLevel, action, nil, details, nil)
}

func (l *Logger) Error(action string, err error, details map[string]interface{}) {
	l.log(zerolog.ErrorLevel, action, nil, details, err)
}

func Debug(action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(zerolog.DebugLevel, action, nil, details, nil)
	}
}

func Info(action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(zerolog.InfoLevel, action, nil, details, nil)
	}
}

func InfoWithUser(userID string, action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(zerolog.InfoLevel, action, &userID, details, nil)
	}
}

func Warn(action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(zerolog.WarnLevel, action, nil, details, nil)
	}
}

func WarnWithUser(userID string, action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(zerolog.WarnLevel, action, &userID, details, nil)
	}
}

func Error(action string, err error, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(zerolog.ErrorLevel, action, nil, details, err)
	}
}

func ErrorWithUser(userID string, action string, err error, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(zerolog.ErrorLevel, action, &userID, details, err)
	}
}

var sensitiveFields = []string{
	"password", "currentPassword", "newPassword", "secret", "token", "totpCode", "backupCode", "backupCodes",
}

// redactSensitiveFields returns a copy of details with credential material
// replaced.
func redactSensitiveFields(details map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(details))
	for k, v := range details {
		out[k] = v
	}
	for _, field := range sensitiveFields {
		if _, exists := out[field]; exists {
			out[field] = "[REDACTED]"
		}
	}
	return out
}
