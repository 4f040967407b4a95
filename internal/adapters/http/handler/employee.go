package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/ogurasousui/employee-sync-adapter/internal/adapters/http/response"
	"github.com/ogurasousui/employee-sync-adapter/internal/core/employee"
	"github.com/ogurasousui/employee-sync-adapter/internal/core/provider"
	"github.com/ogurasousui/employee-sync-adapter/internal/platform/metrics"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// employeePath はパスで指定された社員 ID です。
type employeePath struct {
	EmployeeID string `param:"employee_id" validate:"required,max=255"`
}

// Normalizer はプロバイダー固有のペイロードを正規化します。
type Normalizer interface {
	Normalize(name provider.Name, body []byte) (*provider.Normalized, error)
}

// EmployeeHandler はプロバイダー向けの社員 API です。
type EmployeeHandler struct {
	svc        employee.UseCase
	normalizer Normalizer
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewEmployeeHandler は EmployeeHandler を生成します。
func NewEmployeeHandler(svc employee.UseCase, normalizer Normalizer, m *metrics.Metrics, logger zerolog.Logger) *EmployeeHandler {
	return &EmployeeHandler{svc: svc, normalizer: normalizer, metrics: m, logger: logger}
}

// RegisterRoutes は /:provider 配下のグループにルートを登録します。
func (h *EmployeeHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/employees", h.Create)
	g.PUT("/employees/:employee_id", h.Update)
	g.GET("/employees/:employee_id", h.Show)
}

// Create は社員を同期します。連携先で新規作成した場合は 201、更新した場合は 200 を返します。
func (h *EmployeeHandler) Create(c echo.Context) error {
	name, err := provider.Parse(c.Param("provider"))
	if err != nil {
		return invalidProvider(c, c.Param("provider"))
	}

	normalized, err := h.normalize(c, name)
	if err != nil {
		return h.fail(c, "error creating employee", err)
	}

	outcome, err := h.synchronize(c.Request().Context(), normalized)
	if err != nil {
		return h.fail(c, "error creating employee", err)
	}
	if !outcome.Result.OK {
		return response.Failure(c, outcome.Result)
	}

	status := http.StatusCreated
	if outcome.IsUpdate {
		status = http.StatusOK
	}
	return response.Success(c, status, outcome.Result.Data)
}

// Update は既存の社員を同期します。パスの社員 ID とペイロードの ID は一致している必要があります。
func (h *EmployeeHandler) Update(c echo.Context) error {
	name, err := provider.Parse(c.Param("provider"))
	if err != nil {
		return invalidProvider(c, c.Param("provider"))
	}

	normalized, err := h.normalize(c, name)
	if err != nil {
		return h.fail(c, "error updating employee", err)
	}

	employeeID, err := pathEmployeeID(c)
	if err != nil {
		return h.fail(c, "error updating employee", err)
	}
	if normalized.EmployeeID != employeeID {
		return response.Error(c, http.StatusBadRequest, response.CodeMismatchedEmployee,
			"Path employee_id does not match payload identifier")
	}

	ctx := c.Request().Context()
	exists, err := h.svc.Exists(ctx, employee.FetchInput{Provider: name.String(), EmployeeID: employeeID})
	if err != nil {
		return h.fail(c, "error updating employee", err)
	}
	if !exists {
		return response.Error(c, http.StatusNotFound, response.CodeNotFound, employee.MessageEmployeeNotFound)
	}

	outcome, err := h.synchronize(ctx, normalized)
	if err != nil {
		return h.fail(c, "error updating employee", err)
	}
	if !outcome.Result.OK {
		return response.Failure(c, outcome.Result)
	}
	return response.Success(c, http.StatusOK, outcome.Result.Data)
}

// Show はローカルの社員と連携先のスナップショットを返します。
func (h *EmployeeHandler) Show(c echo.Context) error {
	name, err := provider.Parse(c.Param("provider"))
	if err != nil {
		return invalidProvider(c, c.Param("provider"))
	}

	employeeID, err := pathEmployeeID(c)
	if err != nil {
		return h.fail(c, "error retrieving employee", err)
	}

	res := h.svc.Fetch(c.Request().Context(), employee.FetchInput{
		Provider:   name.String(),
		EmployeeID: employeeID,
	})
	if !res.OK {
		return response.Failure(c, res)
	}
	return response.Success(c, http.StatusOK, res.Data)
}

// pathEmployeeID は前後の空白を除いたパスの社員 ID を検証して返します。
func pathEmployeeID(c echo.Context) (string, error) {
	p := employeePath{EmployeeID: strings.TrimSpace(c.Param("employee_id"))}
	if err := c.Validate(&p); err != nil {
		return "", err
	}
	return p.EmployeeID, nil
}

func (h *EmployeeHandler) normalize(c echo.Context, name provider.Name) (*provider.Normalized, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return h.normalizer.Normalize(name, body)
}

func (h *EmployeeHandler) synchronize(ctx context.Context, n *provider.Normalized) (*employee.SyncOutcome, error) {
	outcome, err := h.svc.Synchronize(ctx, employee.SyncInput{
		Provider:   n.Provider.String(),
		EmployeeID: n.EmployeeID,
		Record:     n.Record,
		RawPayload: n.Raw,
	})
	if err != nil {
		h.metrics.Synchronized(n.Provider.String(), false, false)
		return nil, err
	}
	h.metrics.Synchronized(n.Provider.String(), outcome.IsUpdate, outcome.Result.OK)
	return outcome, nil
}

func (h *EmployeeHandler) fail(c echo.Context, message string, err error) error {
	handled, writeErr := writeError(c, err)
	if !handled {
		h.logger.Error().Err(err).
			Str("provider", c.Param("provider")).
			Str("employee_id", c.Param("employee_id")).
			Msg(message)
	}
	return writeErr
}
