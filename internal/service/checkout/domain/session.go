// internal/service/checkout/domain/session.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Step 是结账状态机的步骤，线性推进，不允许跳步。
type Step string

const (
	StepInfo         Step = "INFO"
	StepPayment      Step = "PAYMENT"
	StepConfirmation Step = "CONFIRMATION"
)

// Session 是结账核心的聚合根。一个会话同一时刻最多持有一个 Order
// 和一个 PaymentHandle；重新下单会先清掉两者再回到 Payment 步骤。
// 所有编排状态都显式地挂在这个值上，不存在散落的隐式标志位。
type Session struct {
	ID               string         `json:"id"`
	CustomerID       string         `json:"customerId"`
	Step             Step           `json:"step"`
	Snapshot         CartSnapshot   `json:"snapshot"`
	Selection        Selection      `json:"selection"`
	Order            *Order         `json:"order,omitempty"`
	Payment          *PaymentHandle `json:"payment,omitempty"`
	PaymentConfirmed bool           `json:"paymentConfirmed"`
	PaymentNotice    string         `json:"paymentNotice,omitempty"`

	// AttemptToken 是本次下单尝试的客户端幂等令牌，
	// 随订单创建请求发给订单服务；重新下单时更换。
	AttemptToken string `json:"attemptToken"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession 用冻结好的购物车快照开启一个新的结账会话。
func NewSession(customerID string, snapshot CartSnapshot) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.New().String(),
		CustomerID:   customerID,
		Step:         StepInfo,
		Snapshot:     snapshot,
		AttemptToken: uuid.New().String(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// AdvanceViolations 枚举 Info → Payment 推进前所有被违反的规则。
func (s *Session) AdvanceViolations() []string {
	violations := s.Selection.MissingFields()
	if s.Snapshot.IsEmpty() {
		violations = append(violations, "cart is empty")
	}
	return violations
}

// CanAdvanceFromInfo 判断是否满足推进条件。
func (s *Session) CanAdvanceFromInfo() bool {
	return len(s.AdvanceViolations()) == 0
}

// AdvanceToPayment 执行 Info → Payment 的推进。
// 校验失败时一次性返回全部违反项。
func (s *Session) AdvanceToPayment() error {
	if s.Step != StepInfo {
		return fmt.Errorf("cannot advance to payment from step %s", s.Step)
	}
	if violations := s.AdvanceViolations(); len(violations) > 0 {
		return NewValidationError(violations...)
	}
	s.Step = StepPayment
	s.touch()
	return nil
}

// AttachOrder 把订单服务返回的订单挂到会话上。
// 每个会话最多一个订单，除非显式重新下单。
func (s *Session) AttachOrder(order *Order) error {
	if s.Step != StepPayment {
		return fmt.Errorf("cannot attach order in step %s", s.Step)
	}
	if s.Order != nil {
		return fmt.Errorf("session %s already holds order %s", s.ID, s.Order.ID)
	}
	s.Order = order
	s.touch()
	return nil
}

// AttachPayment 把支付句柄挂到会话上，前提是订单已存在。
func (s *Session) AttachPayment(handle *PaymentHandle) error {
	if s.Order == nil {
		return fmt.Errorf("cannot attach payment handle without an order")
	}
	if s.Payment != nil {
		return fmt.Errorf("session %s already holds payment %s", s.ID, s.Payment.PaymentID)
	}
	s.Payment = handle
	s.touch()
	return nil
}

// EnterConfirmation 执行 Payment → Confirmation 的推进。
// 只要求订单存在：支付发起失败时订单照样要展示给用户，
// 此时会话进入 Confirmation 但 Payment 为空，属于合法的部分状态。
func (s *Session) EnterConfirmation() error {
	if s.Step != StepPayment {
		return fmt.Errorf("cannot enter confirmation from step %s", s.Step)
	}
	if s.Order == nil {
		return fmt.Errorf("cannot enter confirmation without an order")
	}
	s.Step = StepConfirmation
	s.touch()
	return nil
}

// Restart 即"重新下单"：清掉订单、支付句柄和确认标志，
// 换一个新的幂等令牌，回到 Payment 步骤。这是唯一允许的回退路径。
func (s *Session) Restart() {
	s.Order = nil
	s.Payment = nil
	s.PaymentConfirmed = false
	s.PaymentNotice = ""
	s.AttemptToken = uuid.New().String()
	if s.Step == StepConfirmation {
		s.Step = StepPayment
	}
	s.touch()
}

// ConfirmationArmed 判断确认监听是否处于武装状态：
// 必须已经在 Confirmation 步骤、持有支付句柄、且是需要网关交互的路由。
// 人工转账没有异步确认，靠对账解决。
func (s *Session) ConfirmationArmed() bool {
	if s.Step != StepConfirmation || s.Payment == nil {
		return false
	}
	if s.Payment.Type != "" {
		return s.Payment.Type != GatewayTypeManual
	}
	route, _ := RouteFor(s.Selection.PaymentMethod)
	return route.RequiresRedirect()
}

// ApplyConfirmation 应用一条已通过来源校验的确认消息。
// PAYMENT_SUCCESS 幂等：重复送达不产生任何可观察的差别。
// PAYMENT_ERROR / PAYMENT_CANCEL 只更新提示，不触碰确认标志。
// 返回会话是否发生了需要持久化的变化。
func (s *Session) ApplyConfirmation(msg ConfirmationMessage) bool {
	switch msg.Type {
	case ConfirmationPaymentSuccess:
		if s.PaymentConfirmed {
			return false
		}
		s.PaymentConfirmed = true
		s.PaymentNotice = ""
		if s.Payment != nil {
			s.Payment.Status = PaymentStatusPaid
		}
		if s.Order != nil {
			s.Order.PaymentStatus = PaymentStatusPaid
		}
		s.touch()
		return true

	case ConfirmationPaymentError:
		notice := msg.Message
		if notice == "" {
			notice = "payment failed at the gateway"
		}
		s.PaymentNotice = notice
		s.touch()
		return true

	case ConfirmationPaymentCancel:
		s.PaymentNotice = "payment was cancelled"
		s.touch()
		return true
	}
	return false
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}
