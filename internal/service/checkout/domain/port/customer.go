package port

import (
	"context"

	"meridian/internal/service/checkout/domain"
)

// CustomerDirectory 提供地址与配送方式的选择数据，只读。
type CustomerDirectory interface {
	Addresses(ctx context.Context, customerID string) ([]domain.Address, error)
	DeliveryMethods(ctx context.Context) ([]domain.DeliveryMethod, error)
}
