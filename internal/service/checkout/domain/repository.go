// internal/service/checkout/domain/repository.go
package domain

import "context"

// SessionRepository 定义了结账会话的持久化接口。
// 位于领域层，由基础设施层实现。
type SessionRepository interface {
	// Save 保存会话（创建或更新）。
	Save(ctx context.Context, session *Session) error

	// FindByID 根据 ID 查找会话，不存在时返回 ErrSessionNotFound。
	FindByID(ctx context.Context, id string) (*Session, error)

	// Delete 丢弃会话。
	Delete(ctx context.Context, id string) error

	// ActiveIDs 列出当前存活的会话 ID，供对账器扫描。
	ActiveIDs(ctx context.Context) ([]string, error)
}
