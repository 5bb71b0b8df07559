package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
)

const logDir = "logs"

var componentPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// NewLogger returns a JSON logger writing to logs/<component>.log and to the console.
// The returned closer flushes the file writer.
func NewLogger(component string) (*logrus.Logger, io.Closer, error) {
	if !componentPattern.MatchString(component) {
		return nil, nil, fmt.Errorf("invalid log component name %q", component)
	}
	logger := newBaseLogger()

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	logFile := filepath.Join(logDir, component+".log")
	asyncWriter, err := NewAsyncFileWriter(logFile, 32*1024)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize async log writer: %w", err)
	}

	logger.SetOutput(asyncWriter)
	logger.AddHook(NewConsoleHook(os.Stdout))

	return logger, asyncWriter, nil
}

// NewConsoleLogger logs to stdout only. Used by the SDK when the caller injects nothing.
func NewConsoleLogger() *logrus.Logger {
	logger := newBaseLogger()
	logger.SetOutput(os.Stdout)
	return logger
}

func newBaseLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})
	logger.SetLevel(levelFromEnv())
	return logger
}

func levelFromEnv() logrus.Level {
	if os.Getenv("LOG_LEVEL") == "debug" {
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}
