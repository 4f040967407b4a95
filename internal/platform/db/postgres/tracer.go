package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// QueryLogger は pgx のトレースログを zerolog に出力します。
type QueryLogger struct {
	logger zerolog.Logger
}

// NewQueryLogger は QueryLogger を生成します。
func NewQueryLogger(logger zerolog.Logger) *QueryLogger {
	return &QueryLogger{logger: logger.With().Str("component", "postgres").Logger()}
}

// Log は tracelog.Logger を実装します。バインド引数は社員の個人情報を含むため出力しません。
func (l *QueryLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	var event *zerolog.Event
	switch level {
	case tracelog.LogLevelTrace:
		event = l.logger.Trace()
	case tracelog.LogLevelDebug:
		event = l.logger.Debug()
	case tracelog.LogLevelInfo:
		event = l.logger.Info()
	case tracelog.LogLevelWarn:
		event = l.logger.Warn()
	case tracelog.LogLevelError:
		event = l.logger.Error()
	default:
		event = l.logger.Debug()
	}

	for k, v := range data {
		if k == "args" {
			continue
		}
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}
