package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/DanLeiria/cribs/config"
)

const fileHeader = "============ Logging process started ============\n"

// New builds the logger of one pipeline run. The returned close func flushes and
// closes the file sink and must be called once the run ends.
func New(cfg config.LoggingConfig) (*logrus.Logger, func() error, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if !cfg.ToFile {
		logger.SetOutput(os.Stdout)
		return logger, func() error { return nil }, nil
	}

	f, err := openLogFile(cfg.Dir, cfg.Name)
	if err != nil {
		return nil, nil, err
	}
	logger.SetOutput(f)

	closeFn := func() error {
		logger.SetOutput(io.Discard)
		if err := f.Sync(); err != nil {
			f.Close()
			return fmt.Errorf("failed to flush log file: %w", err)
		}
		return f.Close()
	}
	return logger, closeFn, nil
}

// openLogFile truncates any previous log of the same name.
func openLogFile(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, name+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if _, err := f.WriteString(fileHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write log header: %w", err)
	}
	return f, nil
}
