package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"stackfast/config"
)

// InitLogger configures the standard logrus logger from cfg and returns the
// writer it logs to. The caller owns closing the writer when it is a file.
func InitLogger(cfg config.LoggingConfig) io.Writer {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warnf("Invalid log level '%s', using 'info' instead. Error: %v", cfg.Level, err)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	output := openOutput(cfg.Output)
	logrus.SetOutput(output)

	logrus.WithFields(logrus.Fields{
		"level":  level.String(),
		"format": strings.ToLower(cfg.Format),
	}).Debug("Logger initialized")
	return output
}

func openOutput(target string) io.Writer {
	switch strings.ToLower(strings.TrimSpace(target)) {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}

	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logrus.Warnf("Failed to open log file '%s', using 'stdout' instead. Error: %v", target, err)
		return os.Stdout
	}
	return file
}
