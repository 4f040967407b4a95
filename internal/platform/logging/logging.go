package logging

import (
	"io"
	"os"
	"time"

	"github.com/ogurasousui/employee-sync-adapter/internal/platform/config"
	"github.com/rs/zerolog"
)

// New は設定に従って zerolog.Logger を生成します。
func New(cfg config.LogConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter は出力先を指定して zerolog.Logger を生成します。
func NewWithWriter(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "employee-sync-adapter").
		Logger()
}
