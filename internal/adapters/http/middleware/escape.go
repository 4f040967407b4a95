package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/ogurasousui/employee-sync-adapter/internal/adapters/http/response"
)

const maxEscapeValueLength = 100

var controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// EscapeCharacters は POST/PUT の JSON ボディ中の文字列にバックスラッシュや制御文字が含まれる場合に 400 を返します。
// JSON として解釈できないボディはそのまま後続へ渡します。
func EscapeCharacters() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodPost && req.Method != http.MethodPut && req.Method != http.MethodPatch {
				return next(c)
			}

			body, err := readAndRestore(req)
			if err != nil {
				return err
			}

			var decoded any
			dec := json.NewDecoder(bytes.NewReader(body))
			dec.UseNumber()
			if err := dec.Decode(&decoded); err != nil {
				return next(c)
			}

			if field, value, found := findEscaped(decoded, ""); found {
				return response.Error(c, http.StatusBadRequest, response.CodeInvalidInput,
					fmt.Sprintf("Escape characters detected in field '%s': %s", field, truncate(value, maxEscapeValueLength)))
			}

			return next(c)
		}
	}
}

// findEscaped は最初に見つかったエスケープ文字を含む項目をドット区切りのパスで返します。
func findEscaped(value any, path string) (string, string, bool) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if field, s, ok := findEscaped(v[k], join(path, k)); ok {
				return field, s, true
			}
		}
	case []any:
		for i, item := range v {
			if field, s, ok := findEscaped(item, join(path, strconv.Itoa(i))); ok {
				return field, s, true
			}
		}
	case string:
		if strings.Contains(v, `\`) || controlChars.MatchString(v) {
			return path, v, true
		}
	}
	return "", "", false
}

// truncate は先頭 limit 文字までを返します。マルチバイト文字の途中では切りません。
func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func readAndRestore(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	_ = req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
