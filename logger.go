package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds the console logger on w. When cfg.LogFile is set, the
// same events are also written as JSON to a rotating file; the returned
// closer releases it.
func newLogger(cfg config, w io.Writer) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if cfg.LogLevel != "" {
		var err error
		level, err = zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
		}
	}

	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}

	if cfg.LogFile == "" {
		logger := zerolog.New(console).Level(level).With().Timestamp().Str("app", "chipcard").Logger()
		return logger, io.NopCloser(nil), nil
	}

	file := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: 3,
		Compress:   true,
	}

	out := zerolog.MultiLevelWriter(console, file)
	logger := zerolog.New(out).Level(level).With().Timestamp().Str("app", "chipcard").Logger()
	return logger, file, nil
}
