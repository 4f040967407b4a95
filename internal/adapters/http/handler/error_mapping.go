package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/ogurasousui/employee-sync-adapter/internal/adapters/http/response"
	"github.com/ogurasousui/employee-sync-adapter/internal/core/employee"
	"github.com/ogurasousui/employee-sync-adapter/internal/core/provider"
)

func invalidProvider(c echo.Context, raw string) error {
	names := make([]string, 0, len(provider.Values()))
	for _, v := range provider.Values() {
		names = append(names, v.String())
	}
	message := fmt.Sprintf("Invalid provider: %s. Supported providers are: %s", raw, strings.Join(names, ", "))
	return response.Error(c, http.StatusBadRequest, response.CodeInvalidProvider, message)
}

// writeError は Go のエラーを HTTP レスポンスへ変換します。
// 想定外のエラーは詳細を伏せて 500 とし、呼び出し元でログに残します。
func writeError(c echo.Context, err error) (handled bool, writeErr error) {
	var validationErr *provider.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return true, response.ValidationError(c, validationErr.Fields)
	case errors.Is(err, provider.ErrMalformedPayload):
		return true, response.ValidationError(c, []provider.FieldError{{
			Field:   "body",
			Message: "The request body must be a valid JSON object.",
		}})
	case errors.Is(err, provider.ErrUnknownProvider):
		return true, invalidProvider(c, c.Param("provider"))
	case errors.Is(err, employee.ErrInvalidStartDate),
		errors.Is(err, employee.ErrInvalidStatus),
		errors.Is(err, employee.ErrInvalidEmployeeID),
		errors.Is(err, employee.ErrInvalidProvider):
		return true, response.Error(c, http.StatusBadRequest, response.CodeValidation, err.Error())
	case errors.Is(err, employee.ErrEmployeeNotFound):
		return true, response.Error(c, http.StatusNotFound, response.CodeNotFound, employee.MessageEmployeeNotFound)
	default:
		return false, response.InternalError(c)
	}
}
