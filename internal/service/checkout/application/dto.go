// internal/service/checkout/application/dto.go
package application

import "meridian/internal/service/checkout/domain"

// BeginCheckoutRequest 是开启结账用例的输入。
type BeginCheckoutRequest struct {
	CustomerID string            `json:"customerId"`
	Lines      []domain.CartLine `json:"lines"`
}

// SelectionUpdate 是选择项的部分更新，nil 字段保持不变。
type SelectionUpdate struct {
	DeliveryAddressID *string `json:"deliveryAddressId,omitempty"`
	BillingAddressID  *string `json:"billingAddressId,omitempty"`
	DeliveryMethodID  *string `json:"deliveryMethodId,omitempty"`
	CouponCode        *string `json:"couponCode,omitempty"`
	CustomerNote      *string `json:"customerNote,omitempty"`
	PaymentMethod     *string `json:"paymentMethod,omitempty"`
}

// SessionView 是回给接口层的会话视图。
type SessionView struct {
	SessionID        string                `json:"sessionId"`
	Step             domain.Step           `json:"step"`
	Selection        domain.Selection      `json:"selection"`
	Lines            []domain.CartLine     `json:"lines"`
	Order            *domain.Order         `json:"order,omitempty"`
	Payment          *domain.PaymentHandle `json:"payment,omitempty"`
	PaymentConfirmed bool                  `json:"paymentConfirmed"`
	PaymentNotice    string                `json:"paymentNotice,omitempty"`
}

func viewOf(sess *domain.Session) *SessionView {
	return &SessionView{
		SessionID:        sess.ID,
		Step:             sess.Step,
		Selection:        sess.Selection,
		Lines:            sess.Snapshot.Lines,
		Order:            sess.Order,
		Payment:          sess.Payment,
		PaymentConfirmed: sess.PaymentConfirmed,
		PaymentNotice:    sess.PaymentNotice,
	}
}

func (u SelectionUpdate) applyTo(sel *domain.Selection) {
	if u.DeliveryAddressID != nil {
		sel.DeliveryAddressID = *u.DeliveryAddressID
	}
	if u.BillingAddressID != nil {
		sel.BillingAddressID = *u.BillingAddressID
	}
	if u.DeliveryMethodID != nil {
		sel.DeliveryMethodID = *u.DeliveryMethodID
	}
	if u.CouponCode != nil {
		sel.CouponCode = *u.CouponCode
	}
	if u.CustomerNote != nil {
		sel.CustomerNote = *u.CustomerNote
	}
	if u.PaymentMethod != nil {
		sel.PaymentMethod = domain.PaymentMethod(*u.PaymentMethod)
	}
}
