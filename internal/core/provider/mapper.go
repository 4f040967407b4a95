package provider

import "github.com/ogurasousui/employee-sync-adapter/internal/core/employee"

const (
	defaultProvider1Status = "active"
	defaultProvider2Status = "employed"
)

// Provider1Mapper は provider1 ペイロードを正規化済みレコードへ変換します。
// 入力は検証済みであることを前提とし、失敗しません。
type Provider1Mapper struct {
	Status StatusTranslator
}

func (m Provider1Mapper) Map(p Provider1Payload) employee.SyncRecord {
	return employee.SyncRecord{
		EmployeeID:  p.EmpID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.EmailAddress,
		PhoneNumber: p.Phone,
		Position:    p.JobTitle,
		Department:  p.Dept,
		StartDate:   p.HireDate,
		Status:      m.Status.Translate(valueOr(p.EmploymentStatus, defaultProvider1Status)),
	}
}

// Provider2Mapper は provider2 の入れ子構造をフラットな正規化済みレコードへ変換します。
type Provider2Mapper struct {
	Status StatusTranslator
}

func (m Provider2Mapper) Map(p Provider2Payload) employee.SyncRecord {
	personal := Provider2PersonalInfo{}
	if p.PersonalInfo != nil {
		personal = *p.PersonalInfo
	}
	work := Provider2WorkInfo{}
	if p.WorkInfo != nil {
		work = *p.WorkInfo
	}

	return employee.SyncRecord{
		EmployeeID:  p.EmployeeNumber,
		FirstName:   personal.GivenName,
		LastName:    personal.FamilyName,
		Email:       personal.Email,
		PhoneNumber: personal.Mobile,
		Position:    work.Role,
		Department:  work.Division,
		StartDate:   work.StartDate,
		Status:      m.Status.Translate(valueOr(work.CurrentStatus, defaultProvider2Status)),
	}
}

func valueOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}
