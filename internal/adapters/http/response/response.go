package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ogurasousui/employee-sync-adapter/internal/core/employee"
	"github.com/ogurasousui/employee-sync-adapter/internal/core/provider"
)

// エラーコード
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidProvider    = "INVALID_PROVIDER"
	CodeMismatchedEmployee = "MISMATCHED_EMPLOYEE_ID"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotFound           = "NOT_FOUND"
	CodeRemoteAPI          = "REMOTE_API_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
)

const (
	MessageInvalidEmployeeData = "Invalid employee data"
	MessageInternal            = "An error occurred while processing the employee data"
)

// Envelope はすべての API レスポンスの外側の形式です。
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody は失敗時の error フィールドです。
type ErrorBody struct {
	Code    string                `json:"code"`
	Message string                `json:"message"`
	Details []provider.FieldError `json:"details,omitempty"`
}

// Success は success:true のレスポンスを書き込みます。
func Success(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

// Error は success:false のレスポンスを書き込みます。
func Error(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Envelope{Error: &ErrorBody{Code: code, Message: message}})
}

// ValidationError は項目単位の詳細付きで 400 を返します。
func ValidationError(c echo.Context, details []provider.FieldError) error {
	return c.JSON(http.StatusBadRequest, Envelope{Error: &ErrorBody{
		Code:    CodeValidation,
		Message: MessageInvalidEmployeeData,
		Details: details,
	}})
}

// InternalError は詳細を伏せた 500 を返します。
func InternalError(c echo.Context) error {
	return Error(c, http.StatusInternalServerError, CodeInternal, MessageInternal)
}

// Failure は employee.Result の失敗種別に応じたステータスで書き込みます。
func Failure(c echo.Context, res employee.Result) error {
	switch res.Kind {
	case employee.FailureNotFound:
		return Error(c, http.StatusNotFound, CodeNotFound, res.Error)
	case employee.FailureInternal:
		return Error(c, http.StatusInternalServerError, CodeInternal, res.Error)
	default:
		return Error(c, http.StatusBadGateway, CodeRemoteAPI, res.Error)
	}
}
