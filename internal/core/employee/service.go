package employee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	dateLayout = "2006-01-02"

	MessageEmployeeNotFound = "Employee not found"
	MessageRetrieveFailed   = "Unable to retrieve employee"
	MessageRemoteFailed     = "Remote API error"
	MessageCreated          = "Employee created successfully"
	MessageUpdated          = "Employee updated successfully"
)

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Service はローカルストアと連携先 API の同期ユースケースをまとめます。
type Service struct {
	repo   Repository
	remote RemoteClient
	tx     TransactionManager
	logger zerolog.Logger
}

// UseCase は同期ユースケースの公開インターフェースです。
type UseCase interface {
	Synchronize(ctx context.Context, in SyncInput) (*SyncOutcome, error)
	Fetch(ctx context.Context, in FetchInput) Result
	Exists(ctx context.Context, in FetchInput) (bool, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, remote RemoteClient, tx TransactionManager, logger zerolog.Logger) *Service {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, remote: remote, tx: tx, logger: logger}
}

// SyncInput は同期処理の入力です。
// Record は連携先へ送信する内容であり、ローカルの各項目も同じ値で保存されます。
type SyncInput struct {
	Provider   string
	EmployeeID string
	Record     SyncRecord
	RawPayload json.RawMessage
}

// SyncOutcome は同期処理の結果です。
// IsUpdate は連携先に対して更新を行ったかどうかを表します。
type SyncOutcome struct {
	Result   Result
	IsUpdate bool
}

// FetchInput は社員取得時の入力です。
type FetchInput struct {
	Provider   string
	EmployeeID string
}

// Synchronize は社員を連携先へ作成または更新し、成功した場合のみローカルへ保存します。
//
// 連携先の採番 ID を持つローカルレコードが存在する場合は更新、それ以外は作成を行います。
// 連携先の呼び出しはトランザクションの外で行い、ローカルの書き込みは一つの
// 読み書きトランザクションにまとめます。連携先が失敗した場合ローカルは変更しません。
func (s *Service) Synchronize(ctx context.Context, in SyncInput) (*SyncOutcome, error) {
	providerName, err := normalizeProvider(in.Provider)
	if err != nil {
		return nil, err
	}

	employeeID, err := normalizeEmployeeID(in.EmployeeID)
	if err != nil {
		return nil, err
	}

	startDate, err := parseStartDate(in.Record.StartDate)
	if err != nil {
		return nil, err
	}

	if !in.Record.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Record.Status)
	}

	existing, err := s.findExisting(ctx, providerName, employeeID)
	if err != nil {
		return nil, err
	}

	isUpdate := existing.HasRemoteID()

	var res Result
	if isUpdate {
		res = s.remote.Update(ctx, *existing.RemoteID, in.Record)
	} else {
		res = s.remote.Create(ctx, in.Record)
	}

	if !res.OK {
		message := res.Error
		if message == "" {
			message = MessageRemoteFailed
		}
		if res.Kind == FailureTransport {
			message = MessageRemoteUnavailable
		}
		s.logger.Error().
			Err(res.Cause).
			Str("provider", providerName).
			Str("employee_id", employeeID).
			Bool("is_update", isUpdate).
			Str("failure_kind", string(res.Kind)).
			Str("remote_error", message).
			Msg("remote synchronization failed")
		return &SyncOutcome{Result: Failure(res.Kind, message), IsUpdate: isUpdate}, nil
	}

	remoteID := extractRemoteID(res.Data)

	var saved *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		current, err := s.repo.LockByProviderAndEmployeeID(txCtx, providerName, employeeID)
		if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
			return err
		}

		emp := &Employee{
			Provider:    providerName,
			EmployeeID:  employeeID,
			FirstName:   in.Record.FirstName,
			LastName:    in.Record.LastName,
			Email:       in.Record.Email,
			PhoneNumber: cloneString(in.Record.PhoneNumber),
			Position:    cloneString(in.Record.Position),
			Department:  cloneString(in.Record.Department),
			StartDate:   startDate,
			Status:      in.Record.Status,
			RawPayload:  in.RawPayload,
		}

		if current == nil {
			emp.RemoteID = remoteID
			result, err := s.repo.Create(txCtx, emp)
			if err == nil {
				saved = result
				return nil
			}
			if !errors.Is(err, ErrEmployeeAlreadyExists) {
				return err
			}
			// 並行する同期が先に作成した行を更新として扱う。
			current, err = s.repo.LockByProviderAndEmployeeID(txCtx, providerName, employeeID)
			if err != nil {
				return err
			}
			if current.HasRemoteID() && remoteID != nil && *current.RemoteID != *remoteID {
				s.logger.Warn().
					Str("provider", providerName).
					Str("employee_id", employeeID).
					Str("remote_id", *current.RemoteID).
					Str("discarded_remote_id", *remoteID).
					Msg("concurrent create produced a second remote record")
			}
		}

		emp.ID = current.ID
		emp.CreatedAt = current.CreatedAt
		// 一度採番された連携先 ID は変更もクリアもしない。
		emp.RemoteID = current.RemoteID
		if !current.HasRemoteID() {
			emp.RemoteID = remoteID
		}

		result, err := s.repo.Update(txCtx, emp)
		if err != nil {
			return err
		}
		saved = result
		return nil
	}); err != nil {
		return nil, fmt.Errorf("persist employee: %w", err)
	}

	action, message := "created", MessageCreated
	if isUpdate {
		action, message = "updated", MessageUpdated
	}

	s.logger.Info().
		Str("provider", saved.Provider).
		Str("employee_id", saved.EmployeeID).
		Str("action", action).
		Msg("employee synchronized")

	return &SyncOutcome{
		Result: Success(map[string]any{
			"id":         saved.ID,
			"employeeId": saved.EmployeeID,
			"provider":   saved.Provider,
			"remoteId":   optionalString(saved.RemoteID),
			"message":    message,
		}),
		IsUpdate: isUpdate,
	}, nil
}

// Fetch はローカルの社員を取得し、連携先 ID があれば連携先の情報を remoteSnapshot として付与します。
// 連携先の取得に失敗した場合も remoteSnapshot を null として成功を返します。
func (s *Service) Fetch(ctx context.Context, in FetchInput) Result {
	providerName, err := normalizeProvider(in.Provider)
	if err != nil {
		return Failure(FailureNotFound, MessageEmployeeNotFound)
	}
	employeeID, err := normalizeEmployeeID(in.EmployeeID)
	if err != nil {
		return Failure(FailureNotFound, MessageEmployeeNotFound)
	}

	var found *Employee
	err = s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		emp, err := s.repo.FindByProviderAndEmployeeID(txCtx, providerName, employeeID)
		if err != nil {
			return err
		}
		found = emp
		return nil
	})
	switch {
	case errors.Is(err, ErrEmployeeNotFound):
		return Failure(FailureNotFound, MessageEmployeeNotFound)
	case err != nil:
		s.logger.Error().Err(err).
			Str("provider", providerName).
			Str("employee_id", employeeID).
			Msg("error retrieving employee")
		return Failure(FailureInternal, MessageRetrieveFailed)
	}

	var snapshot any
	if found.HasRemoteID() {
		res := s.remote.Get(ctx, *found.RemoteID)
		if res.OK {
			snapshot = res.Data
		} else {
			s.logger.Warn().
				Err(res.Cause).
				Str("provider", providerName).
				Str("employee_id", employeeID).
				Str("remote_error", res.Error).
				Msg("remote snapshot unavailable")
		}
	}

	data := employeeData(found)
	data["remoteSnapshot"] = snapshot
	return Success(data)
}

// Exists はローカルに社員が保存されているかどうかを返します。連携先は参照しません。
func (s *Service) Exists(ctx context.Context, in FetchInput) (bool, error) {
	providerName, err := normalizeProvider(in.Provider)
	if err != nil {
		return false, err
	}
	employeeID, err := normalizeEmployeeID(in.EmployeeID)
	if err != nil {
		return false, err
	}

	existing, err := s.findExisting(ctx, providerName, employeeID)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

func (s *Service) findExisting(ctx context.Context, provider, employeeID string) (*Employee, error) {
	var existing *Employee
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		emp, err := s.repo.FindByProviderAndEmployeeID(txCtx, provider, employeeID)
		if err != nil {
			return err
		}
		existing = emp
		return nil
	})
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return nil, fmt.Errorf("lookup employee: %w", err)
	}
	return existing, nil
}

func employeeData(emp *Employee) map[string]any {
	var startDate any
	if emp.StartDate != nil {
		startDate = emp.StartDate.Format(dateLayout)
	}

	return map[string]any{
		"id":          emp.ID,
		"employeeId":  emp.EmployeeID,
		"provider":    emp.Provider,
		"remoteId":    optionalString(emp.RemoteID),
		"firstName":   emp.FirstName,
		"lastName":    emp.LastName,
		"email":       emp.Email,
		"phoneNumber": optionalString(emp.PhoneNumber),
		"position":    optionalString(emp.Position),
		"department":  optionalString(emp.Department),
		"startDate":   startDate,
		"status":      string(emp.Status),
		"createdAt":   emp.CreatedAt,
		"updatedAt":   emp.UpdatedAt,
	}
}

// extractRemoteID は連携先のレスポンスから採番 ID を取り出します。id を優先し、なければ employeeId を使います。
func extractRemoteID(data map[string]any) *string {
	for _, key := range []string{"id", "employeeId"} {
		if id, ok := stringify(data[key]); ok {
			return &id
		}
	}
	return nil
}

func stringify(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return "", false
		}
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return "", false
	}
}

func normalizeProvider(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", ErrInvalidProvider
	}
	return trimmed, nil
}

func normalizeEmployeeID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmployeeID
	}
	return trimmed, nil
}

func parseStartDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	if t, err := time.ParseInLocation(dateLayout, value, time.UTC); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStartDate, *raw)
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &day, nil
}

func optionalString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
