package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ogurasousui/employee-sync-adapter/internal/platform/metrics"
	"github.com/rs/zerolog"
)

const redacted = "[REDACTED]"

var sensitiveKeys = map[string]struct{}{
	"password":              {},
	"password_confirmation": {},
	"token":                 {},
	"api_key":               {},
	"secret":                {},
	"client_secret":         {},
	"authorization":         {},
}

// RequestLogger は受信リクエストと応答を構造化ログに出力し、処理時間をメトリクスに記録します。
func RequestLogger(logger zerolog.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			quiet := isProbe(req.URL.Path)

			reqLogger := logger.With().
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Logger()

			event := reqLogger.Info()
			if quiet {
				event = reqLogger.Debug()
			}
			event = event.Str("ip", c.RealIP()).Str("user_agent", req.UserAgent())
			if p := c.Param("provider"); p != "" {
				event = event.Str("provider", p)
			}
			if req.Method != http.MethodGet {
				if body, err := readAndRestore(req); err == nil && len(body) > 0 {
					event = event.RawJSON("body", sanitizeBody(body))
				}
			}
			event.Msg("API request received")

			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			elapsed := time.Since(start)
			m.ObserveHTTP(req.Method, c.Path(), status, elapsed)

			done := levelFor(reqLogger, status, quiet).
				Int("status", status).
				Dur("latency", elapsed)
			if p := c.Param("provider"); p != "" {
				done = done.Str("provider", p)
			}
			done.Msg(responseMessage(status))

			return nil
		}
	}
}

func isProbe(path string) bool {
	return strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/metrics")
}

func levelFor(logger zerolog.Logger, status int, quiet bool) *zerolog.Event {
	switch {
	case status >= http.StatusInternalServerError:
		return logger.Error()
	case status >= http.StatusBadRequest:
		return logger.Warn()
	case quiet:
		return logger.Debug()
	default:
		return logger.Info()
	}
}

func responseMessage(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "API request failed - server error"
	case status >= http.StatusBadRequest:
		return "API request failed - client error"
	case status >= http.StatusMultipleChoices:
		return "API request redirected"
	default:
		return "API request successful"
	}
}

// sanitizeBody は機密項目を伏せた JSON を返します。JSON でない場合はサイズのみを記録します。
func sanitizeBody(body []byte) []byte {
	var decoded any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		out, _ := json.Marshal(map[string]int{"unparsed_bytes": len(body)})
		return out
	}

	out, err := json.Marshal(redact(decoded))
	if err != nil {
		return []byte(`{}`)
	}
	return out
}

func redact(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for k, item := range v {
			if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
				v[k] = redacted
				continue
			}
			v[k] = redact(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = redact(item)
		}
		return v
	default:
		return v
	}
}
