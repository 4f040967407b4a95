package provider

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldError は項目単位の検証エラーです。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError はペイロードの検証エラーをまとめたものです。
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "provider: invalid payload: " + strings.Join(parts, "; ")
}

// Validator は validate タグに基づく構造体検証を行います。
// echo.Validator を満たすため、ルーターの e.Validator にも登録できます。
type Validator struct {
	validate *validator.Validate
}

// NewValidator は JSON タグ名で項目を報告する Validator を生成します。
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "param"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	// 登録は固定のタグ名と関数のみで失敗しない。
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		return IsDate(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Validate は構造体を検証し、失敗した項目を ValidationError として返します。
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("provider: validate: %w", err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe)
		fields = append(fields, FieldError{Field: field, Message: fieldMessage(fe.Tag(), field)})
	}
	return &ValidationError{Fields: fields}
}

// fieldPath は先頭の構造体名を除いたドット区切りの項目名を返します。
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(tag, field string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "date":
		return fmt.Sprintf("The %s field must be a valid date.", field)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", field)
	case "max":
		return fmt.Sprintf("The %s field is too long.", field)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}

// IsDate は YYYY-MM-DD または RFC3339 形式の日付かどうかを返します。
func IsDate(value string) bool {
	if _, err := time.Parse("2006-01-02", value); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, value)
	return err == nil
}
