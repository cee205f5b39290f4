// internal/service/checkout/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionNotFound 表示结账会话不存在或已被丢弃。
	ErrSessionNotFound = errors.New("checkout session not found")

	// ErrSubmissionInFlight 表示同一会话已有一次提交正在进行中。
	// 重复的快速点击会命中这个错误，而不会产生第二笔订单。
	ErrSubmissionInFlight = errors.New("order submission already in flight for this session")

	// ErrUntrustedOrigin 表示确认消息来自白名单之外的来源。
	// 这类消息只记录、不处理，也绝不回显给用户。
	ErrUntrustedOrigin = errors.New("confirmation message from untrusted origin")
)

// ValidationError 是本地校验失败（缺少必填选项、商品 ID 非法、空购物车）。
// Violations 携带全部违反项，而不只是第一条。
type ValidationError struct {
	Violations []string
}

func NewValidationError(violations ...string) *ValidationError {
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// OrderError 是订单服务调用失败。此时状态机停留在原地，不会存任何半成品订单。
type OrderError struct {
	StatusCode int // HTTP 状态码，0 表示网络层失败
	Err        error
}

func (e *OrderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("order service failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("order service failed: %v", e.Err)
}

func (e *OrderError) Unwrap() error { return e.Err }

// PaymentError 是支付服务调用失败。它只会在订单已经创建之后发生，
// 订单必须保留并可见，用户可以针对同一笔订单重试支付。
type PaymentError struct {
	OrderID    string
	StatusCode int
	Err        error
}

func (e *PaymentError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("payment service failed for order %s (status %d): %v", e.OrderID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("payment service failed for order %s: %v", e.OrderID, e.Err)
}

func (e *PaymentError) Unwrap() error { return e.Err }
