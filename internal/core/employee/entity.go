package employee

import (
	"encoding/json"
	"time"
)

// Status は正規化された社員の状態を表します。
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusTerminated Status = "terminated"
)

// IsValid は status が正規化済みの値かどうかを返します。
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusTerminated:
		return true
	default:
		return false
	}
}

// SyncRecord は連携先 API に送信する正規化済みの社員レコードです。
// 任意項目は nil のまま null として送信されます。
type SyncRecord struct {
	EmployeeID  string  `json:"employeeId"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
	Position    *string `json:"position"`
	Department  *string `json:"department"`
	StartDate   *string `json:"startDate"`
	Status      Status  `json:"status"`
}

// Employee はローカルに永続化される社員エンティティです。
// (Provider, EmployeeID) の組で一意になります。
type Employee struct {
	ID          string
	Provider    string
	EmployeeID  string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber *string
	Position    *string
	Department  *string
	StartDate   *time.Time
	Status      Status
	RemoteID    *string
	RawPayload  json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasRemoteID は連携先で採番済みかどうかを返します。
func (e *Employee) HasRemoteID() bool {
	return e != nil && e.RemoteID != nil && *e.RemoteID != ""
}
