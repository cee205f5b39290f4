package port

import (
	"context"

	"meridian/internal/service/checkout/domain"
)

// PaymentService 是支付网关服务的出站端口。
type PaymentService interface {
	// InitiatePayment 针对已创建的订单发起支付，返回支付句柄。
	InitiatePayment(ctx context.Context, req domain.PaymentInitiationRequest) (*domain.PaymentHandle, error)
}
