package port

import "context"

// SubmitLocker 是跨实例的会话提交锁。
// 单实例内的重复提交已由进程内的 in-flight 标志拦截，
// 这把锁保证多实例部署时同一会话也只有一次在途提交。
type SubmitLocker interface {
	// Acquire 获取 sessionID 的提交锁，返回释放函数。
	Acquire(ctx context.Context, sessionID string) (release func(), err error)
}
