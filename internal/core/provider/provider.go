package provider

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownProvider は未対応のプロバイダー名が指定された場合のエラーです。
var ErrUnknownProvider = errors.New("provider: unknown provider")

// Name はプロバイダーの識別子です。
type Name string

const (
	Provider1 Name = "provider1"
	Provider2 Name = "provider2"
)

// Values は対応しているプロバイダーを列挙します。
func Values() []Name {
	return []Name{Provider1, Provider2}
}

// Parse は大文字小文字と前後の空白を無視してプロバイダー名を解釈します。
func Parse(raw string) (Name, error) {
	normalized := Name(strings.ToLower(strings.TrimSpace(raw)))
	for _, v := range Values() {
		if v == normalized {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, raw)
}

func (n Name) String() string {
	return string(n)
}
