package provider

import "github.com/ogurasousui/employee-sync-adapter/internal/core/employee"

// StatusTranslator はプロバイダー固有の在籍状態を正規化済みの状態へ変換します。
// 未知の値に対しても必ず何らかの状態を返します。
type StatusTranslator interface {
	Translate(providerStatus string) employee.Status
}

// Provider1Status は provider1 の状態変換です。未知の値は terminated とみなします。
type Provider1Status struct{}

func (Provider1Status) Translate(providerStatus string) employee.Status {
	switch providerStatus {
	case "active":
		return employee.StatusActive
	case "inactive":
		return employee.StatusInactive
	case "terminated":
		return employee.StatusTerminated
	default:
		return employee.StatusTerminated
	}
}

// Provider2Status は provider2 の状態変換です。未知の値は active とみなします。
type Provider2Status struct{}

func (Provider2Status) Translate(providerStatus string) employee.Status {
	switch providerStatus {
	case "employed":
		return employee.StatusActive
	case "terminated":
		return employee.StatusTerminated
	case "on_leave":
		return employee.StatusInactive
	default:
		return employee.StatusActive
	}
}
