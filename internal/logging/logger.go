package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"status-monitor-api/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup initializes the global logger based on configuration
func Setup(cfg config.Config) error {
	level, err := parseLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var writer io.Writer
	switch strings.ToLower(cfg.Logging.Output) {
	case "stdout":
		writer = setupConsoleWriter(cfg)
	case "file":
		writer, err = setupFileWriter(cfg)
		if err != nil {
			return fmt.Errorf("failed to setup file writer: %w", err)
		}
	case "multi":
		writer, err = setupMultiWriter(cfg)
		if err != nil {
			return fmt.Errorf("failed to setup multi writer: %w", err)
		}
	default:
		return fmt.Errorf("invalid log output %q", cfg.Logging.Output)
	}

	log.Logger = zerolog.New(writer).With().Timestamp().Caller().Logger()

	log.Info().
		Str("level", cfg.Logging.Level).
		Str("format", cfg.Logging.Format).
		Str("output", cfg.Logging.Output).
		Msg("Logger initialized")

	return nil
}

func parseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "fatal":
		return zerolog.FatalLevel, nil
	case "panic":
		return zerolog.PanicLevel, nil
	case "disabled":
		return zerolog.Disabled, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown level: %s", level)
	}
}

func setupConsoleWriter(cfg config.Config) io.Writer {
	if strings.ToLower(cfg.Logging.Format) == "console" {
		// Pretty console output for development
		return zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "2006-01-02 15:04:05",
		}
	}
	return os.Stdout
}

func setupFileWriter(cfg config.Config) (io.Writer, error) {
	logDir := filepath.Dir(cfg.Logging.FilePath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	writer := &lumberjack.Logger{
		Filename:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
		LocalTime:  true,
	}

	return writer, nil
}

func setupMultiWriter(cfg config.Config) (io.Writer, error) {
	writers := []io.Writer{setupConsoleWriter(cfg)}

	if cfg.Logging.FilePath != "" {
		fileWriter, err := setupFileWriter(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to setup file writer: %w", err)
		}
		writers = append(writers, fileWriter)
	}

	return zerolog.MultiLevelWriter(writers...), nil
}
