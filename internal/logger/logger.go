package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide structured logger
var Logger = New(os.Stdout, os.Getenv("LOG_LEVEL"))

// New builds a JSON logger writing to out at the given textual level
func New(out io.Writer, level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	l.SetLevel(ParseLevel(level))
	return l
}

// ParseLevel maps debug|info|warn|error onto logrus levels. Unknown values
// read as info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// SetLevel changes the level of the process-wide logger
func SetLevel(level string) {
	Logger.SetLevel(ParseLevel(level))
}

// WithComponent tags entries with the emitting component
func WithComponent(component string) *logrus.Entry {
	return Logger.WithField("component", component)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

func WithError(err error) *logrus.Entry {
	return Logger.WithError(err)
}

func Info(msg string) {
	Logger.Info(msg)
}

func Warn(msg string) {
	Logger.Warn(msg)
}
