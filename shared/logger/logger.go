// Package logger holds the process-wide logrus logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. It is usable before Init with logrus defaults.
var Log = logrus.New()

// Init configures level, format and outputs. Output always goes to stdout and
// is additionally appended to filePath when set.
func Init(levelStr string, filePath string) error {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	writers := []io.Writer{os.Stdout}
	if filePath != "" {
		if dir := filepath.Dir(filePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
		}

		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, file)
	}
	Log.SetOutput(io.MultiWriter(writers...))

	return nil
}
