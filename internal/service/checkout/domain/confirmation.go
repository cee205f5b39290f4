// internal/service/checkout/domain/confirmation.go
package domain

import "strings"

// ConfirmationType 是确认通道上带标签的消息类型。
type ConfirmationType string

const (
	ConfirmationPaymentSuccess ConfirmationType = "PAYMENT_SUCCESS"
	ConfirmationPaymentError   ConfirmationType = "PAYMENT_ERROR"
	ConfirmationPaymentCancel  ConfirmationType = "PAYMENT_CANCEL"
)

// ConfirmationMessage 是网关推送的支付结果消息。
// Origin 由入站适配器从传输层取得（WebSocket 握手的 Origin 头、
// 或网关信封里的来源声明），不是用户可控的消息体字段。
type ConfirmationMessage struct {
	Type    ConfirmationType `json:"type"`
	Message string           `json:"message,omitempty"`
	OrderID string           `json:"orderId,omitempty"`
	Origin  string           `json:"-"`
}

// OriginAllowList 是可信来源白名单：网关自身的来源加上应用自己的来源。
type OriginAllowList []string

// Trusted 判断 origin 是否在白名单内。比较前统一去掉尾部斜杠并转小写。
func (l OriginAllowList) Trusted(origin string) bool {
	normalized := normalizeOrigin(origin)
	if normalized == "" {
		return false
	}
	for _, allowed := range l {
		if normalizeOrigin(allowed) == normalized {
			return true
		}
	}
	return false
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(origin), "/"))
}
