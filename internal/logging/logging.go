// Package logging builds the process logger from the logging
// configuration section.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tenchan000517/novel-sub005/internal/config"
)

// Retention settings for rotated log files.
const (
	maxAgeDays = 28
	compress   = true
)

// New creates a logger honoring the configured level, format and
// destination. With a file configured, output goes to stderr and the
// rotated file; otherwise stderr only. Unknown levels fall back to
// info.
func New(cfg config.LoggingConfig) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	log.SetOutput(output(cfg))
	return log
}

func output(cfg config.LoggingConfig) io.Writer {
	if cfg.File == "" {
		return os.Stderr
	}
	rotated := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     maxAgeDays,
		Compress:   compress,
	}
	return io.MultiWriter(os.Stderr, rotated)
}
