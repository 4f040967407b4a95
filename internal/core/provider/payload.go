package provider

import "strings"

// Provider1Payload は provider1 のフラットな社員ペイロードです。
type Provider1Payload struct {
	EmpID            string  `json:"emp_id" validate:"required"`
	FirstName        string  `json:"first_name" validate:"required"`
	LastName         string  `json:"last_name" validate:"required"`
	EmailAddress     string  `json:"email_address" validate:"required,email"`
	Phone            *string `json:"phone"`
	JobTitle         *string `json:"job_title"`
	Dept             *string `json:"dept"`
	HireDate         *string `json:"hire_date" validate:"omitempty,date"`
	EmploymentStatus *string `json:"employment_status" validate:"omitempty,oneof=active inactive terminated"`
}

// Provider2Payload は provider2 の入れ子構造の社員ペイロードです。
type Provider2Payload struct {
	EmployeeNumber string                 `json:"employee_number" validate:"required"`
	PersonalInfo   *Provider2PersonalInfo `json:"personal_info" validate:"required"`
	WorkInfo       *Provider2WorkInfo     `json:"work_info" validate:"required"`
}

type Provider2PersonalInfo struct {
	GivenName  string  `json:"given_name" validate:"required"`
	FamilyName string  `json:"family_name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Mobile     *string `json:"mobile"`
}

type Provider2WorkInfo struct {
	Role          *string `json:"role"`
	Division      *string `json:"division"`
	StartDate     *string `json:"start_date" validate:"omitempty,date"`
	CurrentStatus *string `json:"current_status" validate:"omitempty,oneof=employed terminated on_leave"`
}

func (p *Provider1Payload) normalize() {
	p.EmpID = strings.TrimSpace(p.EmpID)
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.EmailAddress = strings.TrimSpace(p.EmailAddress)
	p.Phone = trimOptional(p.Phone)
	p.JobTitle = trimOptional(p.JobTitle)
	p.Dept = trimOptional(p.Dept)
	p.HireDate = trimOptional(p.HireDate)
	p.EmploymentStatus = trimOptional(p.EmploymentStatus)
}

func (p *Provider2Payload) normalize() {
	p.EmployeeNumber = strings.TrimSpace(p.EmployeeNumber)
	if p.PersonalInfo != nil {
		p.PersonalInfo.GivenName = strings.TrimSpace(p.PersonalInfo.GivenName)
		p.PersonalInfo.FamilyName = strings.TrimSpace(p.PersonalInfo.FamilyName)
		p.PersonalInfo.Email = strings.TrimSpace(p.PersonalInfo.Email)
		p.PersonalInfo.Mobile = trimOptional(p.PersonalInfo.Mobile)
	}
	if p.WorkInfo != nil {
		p.WorkInfo.Role = trimOptional(p.WorkInfo.Role)
		p.WorkInfo.Division = trimOptional(p.WorkInfo.Division)
		p.WorkInfo.StartDate = trimOptional(p.WorkInfo.StartDate)
		p.WorkInfo.CurrentStatus = trimOptional(p.WorkInfo.CurrentStatus)
	}
}

// trimOptional は前後の空白を取り除き、空文字列は未指定として扱います。
func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
