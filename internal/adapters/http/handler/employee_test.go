package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/ogurasousui/employee-sync-adapter/internal/core/employee"
	"github.com/ogurasousui/employee-sync-adapter/internal/core/provider"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUseCase struct {
	syncInputs []employee.SyncInput
	outcome    *employee.SyncOutcome
	syncErr    error
	fetch      employee.Result
	exists     bool
	existsErr  error
}

func (f *fakeUseCase) Synchronize(_ context.Context, in employee.SyncInput) (*employee.SyncOutcome, error) {
	f.syncInputs = append(f.syncInputs, in)
	return f.outcome, f.syncErr
}

func (f *fakeUseCase) Fetch(context.Context, employee.FetchInput) employee.Result {
	return f.fetch
}

func (f *fakeUseCase) Exists(context.Context, employee.FetchInput) (bool, error) {
	return f.exists, f.existsErr
}

const provider1Body = `{"emp_id":"EMP001","first_name":"John","last_name":"Doe","email_address":"john@x.com","employment_status":"active"}`

func newTestServer(uc employee.UseCase) *echo.Echo {
	e := echo.New()
	v := provider.NewValidator()
	e.Validator = v
	h := NewEmployeeHandler(uc, provider.NewResolver(v), nil, zerolog.Nop())
	h.RegisterRoutes(e.Group("/:provider"))
	e.GET("/health", Health)
	return e
}

func serve(e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var decoded map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func syncSuccess(isUpdate bool) *employee.SyncOutcome {
	return &employee.SyncOutcome{
		Result: employee.Success(map[string]any{
			"id":         "local-1",
			"employeeId": "EMP001",
			"provider":   "provider1",
			"remoteId":   "tt-1",
		}),
		IsUpdate: isUpdate,
	}
}

func TestCreate_Created(t *testing.T) {
	t.Parallel()

	uc := &fakeUseCase{outcome: syncSuccess(false)}
	rec, body := serve(newTestServer(uc), http.MethodPost, "/Provider1/employees", provider1Body)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "tt-1", data["remoteId"])

	require.Len(t, uc.syncInputs, 1)
	in := uc.syncInputs[0]
	assert.Equal(t, "provider1", in.Provider)
	assert.Equal(t, "EMP001", in.EmployeeID)
	assert.Equal(t, employee.StatusActive, in.Record.Status)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(in.RawPayload, &raw))
	assert.Equal(t, "EMP001", raw["emp_id"])
}

func TestCreate_UpdatedReturns200(t *testing.T) {
	t.Parallel()

	uc := &fakeUseCase{outcome: syncSuccess(true)}
	rec, _ := serve(newTestServer(uc), http.MethodPost, "/provider1/employees", provider1Body)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreate_InvalidProvider(t *testing.T) {
	t.Parallel()

	uc := &fakeUseCase{}
	rec, body := serve(newTestServer(uc), http.MethodPost, "/provider9/employees", provider1Body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PROVIDER", errorCode(body))
	assert.Contains(t, body["error"].(map[string]any)["message"], "provider1, provider2")
	assert.Empty(t, uc.syncInputs)
}

func TestCreate_ValidationError(t *testing.T) {
	t.Parallel()

	uc := &fakeUseCase{}
	rec, body := serve(newTestServer(uc), http.MethodPost, "/provider2/employees",
		`{"employee_number":"E-1","personal_info":{"given_name":"Jane","email":"nope"}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))

	errBody := body["error"].(map[string]any)
	assert.Equal(t, "Invalid employee data", errBody["message"])
	details := errBody["details"].([]any)
	fields := make([]string, 0, len(details))
	for _, d := range details {
		fields = append(fields, d.(map[string]any)["field"].(string))
	}
	assert.Contains(t, fields, "personal_info.family_name")
	assert.Contains(t, fields, "personal_info.email")
	assert.Contains(t, fields, "work_info")
	assert.Empty(t, uc.syncInputs)
}

func TestCreate_MalformedBody(t *testing.T) {
	t.Parallel()

	rec, body := serve(newTestServer(&fakeUseCase{}), http.MethodPost, "/provider1/employees", `{"emp_id":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))
}

func TestCreate_RemoteFailure(t *testing.T) {
	t.Parallel()

	uc := &fakeUseCase{outcome: &employee.SyncOutcome{
		Result: employee.Failure(employee.FailureRemote, "Email already in use"),
	}}
	rec, body := serve(newTestServer(uc), http.MethodPost, "/provider1/employees", provider1Body)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "REMOTE_API_ERROR", errorCode(body))
	assert.Equal(t, "Email already in use", body["error"].(map[string]any)["message"])
}

func TestCreate_StoreErrorIsMasked(t *testing.T) {
	t.Parallel()

	uc := &fakeUseCase{syncErr: errors.New("persist employee: connection refused")}
	rec, body := serve(newTestServer(uc), http.MethodPost, "/provider1/employees", provider1Body)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(body))
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestUpdate_MismatchedEmployeeID(t *testing.T) {
	t.Parallel()

	uc := &fakeUseCase{exists: true, outcome: syncSuccess(true)}
	rec, body := serve(newTestServer(uc), http.MethodPut, "/provider1/employees/EMP002", provider1Body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISMATCHED_EMPLOYEE_ID", errorCode(body))
	assert.Empty(t, uc.syncInputs)
}

func TestUpdate_NotFound(t *testing.T) {
	t.Parallel()

	uc := &fakeUseCase{exists: false}
	rec, body := serve(newTestServer(uc), http.MethodPut, "/provider1/employees/EMP001", provider1Body)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
	assert.Empty(t, uc.syncInputs)
}

func TestUpdate_Success(t *testing.T) {
	t.Parallel()

	uc := &fakeUseCase{exists: true, outcome: syncSuccess(true)}
	rec, body := serve(newTestServer(uc), http.MethodPut, "/provider1/employees/EMP001", provider1Body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	require.Len(t, uc.syncInputs, 1)
}

func TestUpdate_TrimsPathEmployeeID(t *testing.T) {
	t.Parallel()

	uc := &fakeUseCase{exists: true, outcome: syncSuccess(true)}
	rec, _ := serve(newTestServer(uc), http.MethodPut, "/provider1/employees/%20EMP001%20", provider1Body)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, uc.syncInputs, 1)
	assert.Equal(t, "EMP001", uc.syncInputs[0].EmployeeID)
}

func TestUpdate_PathEmployeeIDTooLong(t *testing.T) {
	t.Parallel()

	uc := &fakeUseCase{exists: true, outcome: syncSuccess(true)}
	rec, body := serve(newTestServer(uc), http.MethodPut, "/provider1/employees/"+strings.Repeat("E", 256), provider1Body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))
	details := body["error"].(map[string]any)["details"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, "employee_id", details[0].(map[string]any)["field"])
	assert.Empty(t, uc.syncInputs)
}

func TestUpdate_LookupErrorIsMasked(t *testing.T) {
	t.Parallel()

	uc := &fakeUseCase{existsErr: errors.New("lookup employee: timeout")}
	rec, body := serve(newTestServer(uc), http.MethodPut, "/provider1/employees/EMP001", provider1Body)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(body))
}

func TestShow(t *testing.T) {
	t.Parallel()

	uc := &fakeUseCase{fetch: employee.Success(map[string]any{"employeeId": "EMP001", "remoteSnapshot": nil})}
	rec, body := serve(newTestServer(uc), http.MethodGet, "/provider1/employees/EMP001", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "EMP001", data["employeeId"])
	assert.Contains(t, data, "remoteSnapshot")
}

func TestShow_NotFound(t *testing.T) {
	t.Parallel()

	uc := &fakeUseCase{fetch: employee.Failure(employee.FailureNotFound, employee.MessageEmployeeNotFound)}
	rec, body := serve(newTestServer(uc), http.MethodGet, "/provider2/employees/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec, body := serve(newTestServer(&fakeUseCase{}), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["data"].(map[string]any)["status"])
}
