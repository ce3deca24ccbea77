package logging

import (
	"io"
	"os"
	"time"

	"github.com/ogurasousui/codex-timesheet-api/internal/platform/config"
	"github.com/rs/zerolog"
)

// ServiceName はログの service フィールドに出力される名前です。
const ServiceName = "timesheet-api"

// New は設定に従って zerolog.Logger を構築します。
// 未知のレベルは info として扱います。
func New(cfg config.LogConfig, version string) zerolog.Logger {
	return NewWithWriter(cfg, version, os.Stdout)
}

// NewWithWriter は出力先を指定してロガーを構築します。
func NewWithWriter(cfg config.LogConfig, version string, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp().Str("service", ServiceName)
	if version != "" {
		ctx = ctx.Str("version", version)
	}
	return ctx.Logger()
}
