package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ogurasousui/employee-sync-adapter/internal/core/employee"
)

// ErrMalformedPayload は JSON として解釈できないペイロードを表します。
var ErrMalformedPayload = errors.New("provider: malformed payload")

// Normalized は検証と変換を終えたペイロードです。
type Normalized struct {
	Provider   Name
	EmployeeID string
	Record     employee.SyncRecord
	// Raw は検証済みの項目のみを含むペイロードで、監査用にそのまま保存されます。
	Raw json.RawMessage
}

type normalizeFunc func(body []byte) (*Normalized, error)

// Resolver はプロバイダー名から対応するデコード・検証・変換の組を選択します。
type Resolver struct {
	entries map[Name]normalizeFunc
}

// NewResolver は対応済みプロバイダーを登録した Resolver を生成します。
// v が nil の場合は NewValidator の既定値を使います。
func NewResolver(v *Validator) *Resolver {
	if v == nil {
		v = NewValidator()
	}

	p1 := Provider1Mapper{Status: Provider1Status{}}
	p2 := Provider2Mapper{Status: Provider2Status{}}

	return &Resolver{
		entries: map[Name]normalizeFunc{
			Provider1: func(body []byte) (*Normalized, error) {
				var payload Provider1Payload
				if err := decode(body, &payload); err != nil {
					return nil, err
				}
				payload.normalize()
				if err := v.Validate(&payload); err != nil {
					return nil, err
				}
				return build(Provider1, payload.EmpID, p1.Map(payload), payload)
			},
			Provider2: func(body []byte) (*Normalized, error) {
				var payload Provider2Payload
				if err := decode(body, &payload); err != nil {
					return nil, err
				}
				payload.normalize()
				if err := v.Validate(&payload); err != nil {
					return nil, err
				}
				return build(Provider2, payload.EmployeeNumber, p2.Map(payload), payload)
			},
		},
	}
}

// Normalize はリクエストボディを指定プロバイダーのスキーマで解釈し、正規化済みレコードを返します。
func (r *Resolver) Normalize(name Name, body []byte) (*Normalized, error) {
	fn, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return fn(body)
}

func build(name Name, employeeID string, record employee.SyncRecord, payload any) (*Normalized, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("provider: encode payload: %w", err)
	}
	return &Normalized{Provider: name, EmployeeID: employeeID, Record: record, Raw: raw}, nil
}

// decode は JSON をデコードし、型の不一致を項目単位の検証エラーに変換します。
func decode(body []byte, dst any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}

	err := json.Unmarshal(body, dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			return fmt.Errorf("%w: body must be a JSON object", ErrMalformedPayload)
		}
		message := fmt.Sprintf("The %s field must be a string.", field)
		if typeErr.Type != nil && typeErr.Type.Kind() != reflect.String {
			message = fmt.Sprintf("The %s field must be an object.", field)
		}
		return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
	}

	return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
}
