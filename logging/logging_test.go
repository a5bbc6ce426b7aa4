package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestConfigFromSettings(t *testing.T) {
	cfg, err := ConfigFromSettings("debug", "logs", true)
	assert.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, cfg.Level)
	assert.Equal(t, "logs", cfg.FileDir)
	assert.True(t, cfg.JSON)

	_, err = ConfigFromSettings("loud", "", false)
	assert.Error(t, err)
}

func TestNewLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	old := defaultConfig
	defer SetDefaultConfig(&old)

	SetDefaultConfig(&Config{Level: logrus.InfoLevel, FileDir: dir, DisableConsole: true})
	logger := NewLogger()
	logger.WithField("jurisdiction", "foisa").Info("populated")

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)

	content, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	assert.NoError(t, err)
	assert.True(t, strings.Contains(string(content), "jurisdiction=foisa"))
}

func TestGormWriterLogsAtDebug(t *testing.T) {
	logger := logrus.New()
	var sb strings.Builder
	logger.SetOutput(&sb)
	logger.SetLevel(logrus.InfoLevel)

	w := &GormWriter{Logger: logger}
	w.Printf("select %d", 1)
	assert.Empty(t, sb.String())

	logger.SetLevel(logrus.DebugLevel)
	w.Printf("select %d", 1)
	assert.Contains(t, sb.String(), "select 1")
}
