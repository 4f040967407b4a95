package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/employee-sync-adapter/internal/core/employee"
	pgdb "github.com/ogurasousui/employee-sync-adapter/internal/platform/db/postgres"
)

const (
	employeeUniqueViolationCode = "23505"
	employeeCheckViolationCode  = "23514"

	employeeColumns = `id, provider, employee_id, first_name, last_name, email, phone_number, position, department,
               start_date, status, remote_id, provider_data, created_at, updated_at`
)

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。ID が空の場合は UUID を採番し、タイムスタンプはデータベースが設定します。
// 同じプロバイダーと社員 ID の行が既にある場合はトランザクションを中断させずに ErrEmployeeAlreadyExists を返します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (id, provider, employee_id, first_name, last_name, email, phone_number, position, department,
                               start_date, status, remote_id, provider_data, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
        ON CONFLICT (provider, employee_id) DO NOTHING
        RETURNING `+employeeColumns,
		id,
		e.Provider,
		e.EmployeeID,
		e.FirstName,
		e.LastName,
		e.Email,
		nullableString(e.PhoneNumber),
		nullableString(e.Position),
		nullableString(e.Department),
		nullableDate(e.StartDate),
		string(e.Status),
		nullableString(e.RemoteID),
		rawPayload(e.RawPayload),
	)

	created, err := scanEmployee(row)
	if errors.Is(err, employee.ErrEmployeeNotFound) {
		// ON CONFLICT で挿入されなかった場合は行が返らない。
		return nil, employee.ErrEmployeeAlreadyExists
	}
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// Update は社員情報を更新します。remote_id は未設定の場合のみ書き込まれます。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET first_name = $1,
               last_name = $2,
               email = $3,
               phone_number = $4,
               position = $5,
               department = $6,
               start_date = $7,
               status = $8,
               remote_id = COALESCE(remote_id, $9),
               provider_data = $10,
               updated_at = now()
         WHERE id = $11
        RETURNING `+employeeColumns,
		e.FirstName,
		e.LastName,
		e.Email,
		nullableString(e.PhoneNumber),
		nullableString(e.Position),
		nullableString(e.Department),
		nullableDate(e.StartDate),
		string(e.Status),
		nullableString(e.RemoteID),
		rawPayload(e.RawPayload),
		e.ID,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// FindByProviderAndEmployeeID はプロバイダーとプロバイダー側の社員 ID で検索します。
func (r *EmployeeRepository) FindByProviderAndEmployeeID(ctx context.Context, provider, employeeID string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE provider = $1 AND employee_id = $2
         LIMIT 1
    `, provider, employeeID)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// LockByProviderAndEmployeeID は対象行を FOR UPDATE でロックして取得します。
// トランザクション外で呼び出した場合はロックは即座に解放されます。
func (r *EmployeeRepository) LockByProviderAndEmployeeID(ctx context.Context, provider, employeeID string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE provider = $1 AND employee_id = $2
         LIMIT 1
           FOR UPDATE
    `, provider, employeeID)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		id           string
		providerName string
		employeeID   string
		firstName    string
		lastName     string
		email        string
		phoneNumber  sql.NullString
		position     sql.NullString
		department   sql.NullString
		startDate    sql.NullTime
		status       string
		remoteID     sql.NullString
		providerData []byte
		createdAt    time.Time
		updatedAt    time.Time
	)

	if err := row.Scan(
		&id,
		&providerName,
		&employeeID,
		&firstName,
		&lastName,
		&email,
		&phoneNumber,
		&position,
		&department,
		&startDate,
		&status,
		&remoteID,
		&providerData,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	var startPtr *time.Time
	if startDate.Valid {
		t := startDate.Time.UTC()
		date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		startPtr = &date
	}

	var raw json.RawMessage
	if len(providerData) > 0 {
		raw = json.RawMessage(providerData)
	}

	return &employee.Employee{
		ID:          id,
		Provider:    providerName,
		EmployeeID:  employeeID,
		FirstName:   firstName,
		LastName:    lastName,
		Email:       email,
		PhoneNumber: stringPtr(phoneNumber),
		Position:    stringPtr(position),
		Department:  stringPtr(department),
		StartDate:   startPtr,
		Status:      employee.Status(status),
		RemoteID:    stringPtr(remoteID),
		RawPayload:  raw,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case employeeUniqueViolationCode:
			return employee.ErrEmployeeAlreadyExists
		case employeeCheckViolationCode:
			return errors.Join(employee.ErrInvalidStatus, err)
		}
	}

	return err
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}

func rawPayload(value json.RawMessage) any {
	if len(value) == 0 {
		return nil
	}
	return []byte(value)
}
