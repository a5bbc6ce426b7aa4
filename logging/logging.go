package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Config controls where and how loggers created by NewLogger write
type Config struct {
	Level logrus.Level
	// FileDir, when set, receives one log file per day in addition to the console
	FileDir        string
	DisableConsole bool
	JSON           bool
}

var defaultConfig = Config{Level: logrus.InfoLevel}

// SetDefaultConfig replaces the configuration used by NewLogger
func SetDefaultConfig(cfg *Config) {
	defaultConfig = *cfg
}

// ConfigFromSettings builds a Config from the plain settings in config.Config
func ConfigFromSettings(level string, dir string, json bool) (*Config, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return &Config{Level: lvl, FileDir: dir, JSON: json}, nil
}

// NewLogger returns a logrus logger configured from the default config.
// A log file that cannot be opened is reported on stderr and skipped.
func NewLogger() *logrus.Logger {
	cfg := defaultConfig
	logger := logrus.New()
	logger.SetLevel(cfg.Level)

	if cfg.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var writers []io.Writer
	if !cfg.DisableConsole {
		writers = append(writers, os.Stderr)
	}
	if cfg.FileDir != "" {
		f, err := openLogFile(cfg.FileDir, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		} else {
			writers = append(writers, f)
		}
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	return logger
}

func openLogFile(dir string, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	name := filepath.Join(dir, fmt.Sprintf("pi-monitor-%s.log", now.Format("2006-01-02")))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// GormWriter adapts a logrus logger to gorm's logger.Writer
type GormWriter struct {
	Logger *logrus.Logger
}

func (w *GormWriter) Printf(format string, args ...interface{}) {
	w.Logger.Debugf(format, args...)
}
