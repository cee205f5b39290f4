package port

import "context"

// OriginResolver 做尽力而为的客户端网络来源探测。
// 失败是非致命的：调用方拿到错误后应以空值继续，绝不因此阻塞支付。
type OriginResolver interface {
	ClientOrigin(ctx context.Context) (string, error)
}
