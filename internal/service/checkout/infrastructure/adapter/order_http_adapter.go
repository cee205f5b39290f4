// internal/service/checkout/infrastructure/adapter/order_http_adapter.go
package adapter

import (
	"context"
	"net/http"

	"meridian/internal/pkg/httpclient"
	"meridian/internal/service/checkout/domain"

	"github.com/pkg/errors"
)

// OrderHTTPAdapter 实现了 port.OrderService，经 HTTP 调用订单服务。
type OrderHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

func NewOrderHTTPAdapter(client *httpclient.Client, baseURL string) *OrderHTTPAdapter {
	return &OrderHTTPAdapter{client: client, baseURL: baseURL}
}

func (a *OrderHTTPAdapter) CreateOrder(ctx context.Context, req domain.OrderCreationRequest, idempotencyKey string) (*domain.Order, error) {
	headers := http.Header{}
	if idempotencyKey != "" {
		headers.Set("Idempotency-Key", idempotencyKey)
	}

	var order domain.Order
	if err := a.client.PostJSON(ctx, a.baseURL+"/orders", headers, req, &order); err != nil {
		return nil, asOrderError(err)
	}
	return &order, nil
}

func (a *OrderHTTPAdapter) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	if err := a.client.GetJSON(ctx, a.baseURL+"/orders/"+id, &order); err != nil {
		return nil, asOrderError(err)
	}
	return &order, nil
}

func (a *OrderHTTPAdapter) UpdateOrderStatus(ctx context.Context, id string, status *domain.OrderStatus, paymentStatus *domain.PaymentStatus) (*domain.Order, error) {
	patch := struct {
		Status        *domain.OrderStatus   `json:"status,omitempty"`
		PaymentStatus *domain.PaymentStatus `json:"paymentStatus,omitempty"`
	}{Status: status, PaymentStatus: paymentStatus}

	var order domain.Order
	if err := a.client.PatchJSON(ctx, a.baseURL+"/orders/"+id, patch, &order); err != nil {
		return nil, asOrderError(err)
	}
	return &order, nil
}

func asOrderError(err error) error {
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		return &domain.OrderError{StatusCode: se.Code, Err: err}
	}
	return &domain.OrderError{Err: errors.Wrap(err, "order service unreachable")}
}
