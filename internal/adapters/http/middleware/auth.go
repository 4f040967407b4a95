package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/ogurasousui/employee-sync-adapter/internal/adapters/http/response"
	"github.com/ogurasousui/employee-sync-adapter/internal/platform/config"
	"golang.org/x/crypto/bcrypt"
)

const minTokenLength = 10

// ProviderToken はプロバイダーからのリクエストの Bearer トークンを検証します。
// token_hashes が空の場合は形式のみを確認します。
func ProviderToken(cfg config.ProviderAuthConfig) echo.MiddlewareFunc {
	hashes := make([][]byte, 0, len(cfg.TokenHashes))
	for _, h := range cfg.TokenHashes {
		hashes = append(hashes, []byte(h))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !cfg.Enabled {
			return next
		}
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized,
					"Missing or invalid authorization header")
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if len(token) < minTokenLength {
				return response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Invalid token format")
			}

			if len(hashes) > 0 && !matchesAny(hashes, token) {
				return response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Invalid token")
			}

			return next(c)
		}
	}
}

func matchesAny(hashes [][]byte, token string) bool {
	for _, h := range hashes {
		if bcrypt.CompareHashAndPassword(h, []byte(token)) == nil {
			return true
		}
	}
	return false
}
