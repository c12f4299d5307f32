package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenchan000517/novel-sub005/internal/config"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"bogus", logrus.InfoLevel},
		{"", logrus.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := New(config.LoggingConfig{Level: tt.level})
			assert.Equal(t, tt.want, log.GetLevel())
		})
	}
}

func TestNew_Format(t *testing.T) {
	log := New(config.LoggingConfig{Format: "json"})
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = New(config.LoggingConfig{Format: "text"})
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)

	log = New(config.LoggingConfig{})
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.log")
	log := New(config.LoggingConfig{Level: "info", File: path, MaxSize: 1, MaxBackups: 1})

	log.WithField("component", "test").Info("rotated file output")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rotated file output")
}
