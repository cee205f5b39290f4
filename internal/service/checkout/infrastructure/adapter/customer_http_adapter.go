// internal/service/checkout/infrastructure/adapter/customer_http_adapter.go
package adapter

import (
	"context"

	"meridian/internal/pkg/httpclient"
	"meridian/internal/service/checkout/domain"
)

// CustomerHTTPAdapter 实现了 port.CustomerDirectory，
// 从客户服务读取地址和配送方式的选择数据。
type CustomerHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

func NewCustomerHTTPAdapter(client *httpclient.Client, baseURL string) *CustomerHTTPAdapter {
	return &CustomerHTTPAdapter{client: client, baseURL: baseURL}
}

func (a *CustomerHTTPAdapter) Addresses(ctx context.Context, customerID string) ([]domain.Address, error) {
	var addresses []domain.Address
	if err := a.client.GetJSON(ctx, a.baseURL+"/customers/"+customerID+"/addresses", &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (a *CustomerHTTPAdapter) DeliveryMethods(ctx context.Context) ([]domain.DeliveryMethod, error) {
	var methods []domain.DeliveryMethod
	if err := a.client.GetJSON(ctx, a.baseURL+"/delivery-methods", &methods); err != nil {
		return nil, err
	}
	return methods, nil
}
