package employee

import "context"

// Repository は社員永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	FindByProviderAndEmployeeID(ctx context.Context, provider, employeeID string) (*Employee, error)
	// LockByProviderAndEmployeeID はトランザクション内で対象行をロックして取得します。
	LockByProviderAndEmployeeID(ctx context.Context, provider, employeeID string) (*Employee, error)
}

// RemoteClient は連携先の社員 API の抽象です。
// 実装はエラーを返さず、すべての失敗を Result に変換します。
type RemoteClient interface {
	Create(ctx context.Context, record SyncRecord) Result
	Update(ctx context.Context, remoteID string, record SyncRecord) Result
	Get(ctx context.Context, remoteID string) Result
}
