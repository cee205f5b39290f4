// internal/service/checkout/domain/payment.go
package domain

import "time"

// PaymentMethod 是面向用户的支付方式。
type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodEWallet      PaymentMethod = "ewallet"
)

// GatewayMethod 与 GatewayPaymentType 是网关侧的方法 / 类型编码。
type GatewayMethod string

type GatewayPaymentType string

const (
	GatewayMethodBankTransfer GatewayMethod = "BANK_TRANSFER"
	GatewayMethodGateway      GatewayMethod = "PAYMENT_GATEWAY"

	GatewayTypeManual GatewayPaymentType = "MANUAL" // 线下 / 人工确认的转账
	GatewayTypeDebit  GatewayPaymentType = "DEBIT"  // 即时网关扣款
)

// GatewayRoute 是一次支付发起使用的 (method, paymentType) 组合。
type GatewayRoute struct {
	Method GatewayMethod
	Type   GatewayPaymentType
}

// RequiresRedirect 返回该路由是否需要跳转 / 内嵌网关页面完成支付。
// 人工转账没有交互页面，确认走线下对账。
func (r GatewayRoute) RequiresRedirect() bool {
	return r.Type != GatewayTypeManual
}

// RouteFor 把用户选择的支付方式映射为网关编码。
// 映射是按类型穷举的 switch；未知方式统一落到即时网关路由，
// fellBack 会置为 true，调用方应记录一条告警。
func RouteFor(method PaymentMethod) (route GatewayRoute, fellBack bool) {
	switch method {
	case MethodBankTransfer:
		return GatewayRoute{Method: GatewayMethodBankTransfer, Type: GatewayTypeManual}, false
	case MethodCreditCard:
		return GatewayRoute{Method: GatewayMethodGateway, Type: GatewayTypeDebit}, false
	case MethodEWallet:
		return GatewayRoute{Method: GatewayMethodGateway, Type: GatewayTypeDebit}, false
	default:
		return GatewayRoute{Method: GatewayMethodGateway, Type: GatewayTypeDebit}, true
	}
}

// PaymentHandle 是支付服务签发的支付句柄，本核心只读缓存。
type PaymentHandle struct {
	PaymentID   string             `json:"paymentId"`
	Status      PaymentStatus      `json:"status"`
	RedirectURL string             `json:"redirectUrl,omitempty"`
	Type        GatewayPaymentType `json:"paymentType"`
	ExpiresAt   *time.Time         `json:"expiresAt,omitempty"`
}

// PaymentInitiationRequest 是发给支付服务的发起请求。
type PaymentInitiationRequest struct {
	OrderID      string             `json:"orderId"`
	Method       GatewayMethod      `json:"method"`
	Currency     string             `json:"currency"`
	PaymentType  GatewayPaymentType `json:"paymentType"`
	ClientOrigin string             `json:"clientOrigin,omitempty"`
	ClientAgent  string             `json:"clientAgent,omitempty"`
	ReturnURL    string             `json:"returnUrl"`
}
