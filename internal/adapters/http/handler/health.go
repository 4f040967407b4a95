package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ogurasousui/employee-sync-adapter/internal/adapters/http/response"
)

// Health は死活監視用のハンドラーです。
func Health(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}
