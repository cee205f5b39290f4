// internal/pkg/httpclient/client.go
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Client 是一个可追踪的、可注入的 HTTP 客户端。
type Client struct {
	Tracer     trace.Tracer
	HTTPClient *http.Client
}

// NewClient 创建一个新的客户端实例。
// 不设置全局 Timeout，超时完全受每次请求传入的 context 控制。
func NewClient(tracer trace.Tracer) *Client {
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
	}
	return &Client{
		Tracer:     tracer,
		HTTPClient: httpClient,
	}
}

// StatusError 表示下游服务返回了非 2xx 状态码。
// 适配器层据此构造带状态码的领域错误。
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("service %s returned status %d", e.URL, e.Code)
}

// PostJSON 向下游服务发送 JSON 请求体，并把 JSON 响应解码到 out。
// out 为 nil 时丢弃响应体。
func (c *Client) PostJSON(ctx context.Context, serviceURL string, headers http.Header, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, serviceURL, headers, bytes.NewReader(body), out)
}

// PatchJSON 发起 PATCH 请求，用于部分更新类接口。
func (c *Client) PatchJSON(ctx context.Context, serviceURL string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, serviceURL, nil, bytes.NewReader(body), out)
}

// GetJSON 发起 GET 请求并把 JSON 响应解码到 out。
func (c *Client) GetJSON(ctx context.Context, serviceURL string, out interface{}) error {
	return c.do(ctx, http.MethodGet, serviceURL, nil, nil, out)
}

// GetText 发起 GET 请求并返回纯文本响应，用于外部 IP 探测这类接口。
func (c *Client) GetText(ctx context.Context, serviceURL string) (string, error) {
	resp, err := c.roundTrip(ctx, http.MethodGet, serviceURL, nil, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode, URL: serviceURL}
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func (c *Client) do(ctx context.Context, method, serviceURL string, headers http.Header, body io.Reader, out interface{}) error {
	resp, err := c.roundTrip(ctx, method, serviceURL, headers, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, URL: serviceURL}
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) roundTrip(ctx context.Context, method, serviceURL string, headers http.Header, body io.Reader) (*http.Response, error) {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return nil, err
	}
	spanName := fmt.Sprintf("call-%s", strings.Split(parsedURL.Host, ":")[0])

	ctx, span := c.Tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, serviceURL, body)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	span.SetAttributes(
		attribute.String("http.url", serviceURL),
		attribute.String("http.method", method),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, resp.Status)
	}
	return resp, nil
}
