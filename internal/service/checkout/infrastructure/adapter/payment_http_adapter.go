// internal/service/checkout/infrastructure/adapter/payment_http_adapter.go
package adapter

import (
	"context"

	"meridian/internal/pkg/httpclient"
	"meridian/internal/service/checkout/domain"

	"github.com/pkg/errors"
)

// PaymentHTTPAdapter 实现了 port.PaymentService。
type PaymentHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

func NewPaymentHTTPAdapter(client *httpclient.Client, baseURL string) *PaymentHTTPAdapter {
	return &PaymentHTTPAdapter{client: client, baseURL: baseURL}
}

func (a *PaymentHTTPAdapter) InitiatePayment(ctx context.Context, req domain.PaymentInitiationRequest) (*domain.PaymentHandle, error) {
	var handle domain.PaymentHandle
	if err := a.client.PostJSON(ctx, a.baseURL+"/payments", nil, req, &handle); err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) {
			return nil, &domain.PaymentError{OrderID: req.OrderID, StatusCode: se.Code, Err: err}
		}
		return nil, &domain.PaymentError{OrderID: req.OrderID, Err: errors.Wrap(err, "payment service unreachable")}
	}
	return &handle, nil
}
