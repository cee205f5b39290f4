package port

import (
	"context"

	"meridian/internal/service/checkout/domain"
)

// OrderService 是订单服务的出站端口。
type OrderService interface {
	// CreateOrder 提交订单创建请求。idempotencyKey 随请求发出，
	// 由订单服务按令牌去重；本核心自己绝不自动重试。
	CreateOrder(ctx context.Context, req domain.OrderCreationRequest, idempotencyKey string) (*domain.Order, error)

	// GetOrder 查询订单当前状态，供对账兜底使用。
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// UpdateOrderStatus 更新订单状态或支付状态，nil 表示不变。
	UpdateOrderStatus(ctx context.Context, id string, status *domain.OrderStatus, paymentStatus *domain.PaymentStatus) (*domain.Order, error)
}
