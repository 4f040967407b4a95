package provider

import (
	"errors"
	"testing"
)

func TestValidator_Messages(t *testing.T) {
	t.Parallel()

	status := "employed"
	hire := "2024-13-40"
	payload := &Provider1Payload{
		EmpID:            "EMP001",
		LastName:         "Doe",
		EmailAddress:     "not-an-email",
		HireDate:         &hire,
		EmploymentStatus: &status,
	}

	err := NewValidator().Validate(payload)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	want := []FieldError{
		{Field: "first_name", Message: "The first_name field is required."},
		{Field: "email_address", Message: "The email_address field must be a valid email address."},
		{Field: "hire_date", Message: "The hire_date field must be a valid date."},
		{Field: "employment_status", Message: "The selected employment_status is invalid."},
	}
	if len(verr.Fields) != len(want) {
		t.Fatalf("expected %d field errors, got %+v", len(want), verr.Fields)
	}
	for i, w := range want {
		if verr.Fields[i] != w {
			t.Errorf("field %d: want %+v got %+v", i, w, verr.Fields[i])
		}
	}
}

func TestValidator_NestedPaths(t *testing.T) {
	t.Parallel()

	payload := &Provider2Payload{
		EmployeeNumber: "P2-1",
		PersonalInfo:   &Provider2PersonalInfo{GivenName: "Jane", Email: "jane@x.com"},
		WorkInfo:       &Provider2WorkInfo{},
	}

	err := NewValidator().Validate(payload)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 1 || verr.Fields[0].Field != "personal_info.family_name" {
		t.Fatalf("unexpected field errors: %+v", verr.Fields)
	}
}

func TestValidator_AcceptsRFC3339Dates(t *testing.T) {
	t.Parallel()

	start := "2024-01-15T09:00:00Z"
	payload := &Provider2Payload{
		EmployeeNumber: "P2-1",
		PersonalInfo:   &Provider2PersonalInfo{GivenName: "Jane", FamilyName: "Roe", Email: "jane@x.com"},
		WorkInfo:       &Provider2WorkInfo{StartDate: &start},
	}

	if err := NewValidator().Validate(payload); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
}
