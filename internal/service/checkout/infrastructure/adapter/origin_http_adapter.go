// internal/service/checkout/infrastructure/adapter/origin_http_adapter.go
package adapter

import (
	"context"
	"time"

	"meridian/internal/pkg/httpclient"
)

// OriginHTTPAdapter 实现了 port.OriginResolver，
// 调用外部探测接口取得客户端的对外网络地址。
// 这个信息纯属附加元数据，适配器自带短超时，失败由调用方以空值继续。
type OriginHTTPAdapter struct {
	client    *httpclient.Client
	lookupURL string
}

func NewOriginHTTPAdapter(client *httpclient.Client, lookupURL string) *OriginHTTPAdapter {
	return &OriginHTTPAdapter{client: client, lookupURL: lookupURL}
}

func (a *OriginHTTPAdapter) ClientOrigin(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return a.client.GetText(ctx, a.lookupURL)
}
