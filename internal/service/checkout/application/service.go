// internal/service/checkout/application/service.go
package application

import (
	"context"
	"fmt"
	"sync"

	"meridian/internal/pkg/logger"
	"meridian/internal/pkg/metrics"
	"meridian/internal/service/checkout/domain"
	"meridian/internal/service/checkout/domain/port"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CheckoutApplicationService 编排整个结账流程。
// 订单提交严格先于支付发起，两者绝不并发；确认消息由独立的
// 入站适配器驱动，经 HandleConfirmation 汇入同一个会话。
type CheckoutApplicationService struct {
	sessions  domain.SessionRepository
	customers port.CustomerDirectory
	locker    port.SubmitLocker // 可为 nil，单实例部署时仅靠进程内标志
	submitter *orderSubmitter
	initiator *paymentInitiator
	trusted   domain.OriginAllowList
	tracer    trace.Tracer

	// inflight 按会话拦截并发提交：同一会话第二个并发 PlaceOrder
	// 直接拿到 ErrSubmissionInFlight，不会打到订单服务。
	inflight sync.Map
}

// Deps 汇集构造应用服务所需的全部依赖。
type Deps struct {
	Sessions  domain.SessionRepository
	Orders    port.OrderService
	Payments  port.PaymentService
	Customers port.CustomerDirectory
	Origins   port.OriginResolver
	Journal   port.AttemptJournal
	Locker    port.SubmitLocker
	Trusted   domain.OriginAllowList
	Tracer    trace.Tracer
	Currency  string
	AppOrigin string
}

func NewCheckoutApplicationService(d Deps) *CheckoutApplicationService {
	return &CheckoutApplicationService{
		sessions:  d.Sessions,
		customers: d.Customers,
		locker:    d.Locker,
		trusted:   d.Trusted,
		tracer:    d.Tracer,
		submitter: &orderSubmitter{orders: d.Orders, journal: d.Journal, tracer: d.Tracer},
		initiator: &paymentInitiator{
			payments:  d.Payments,
			origins:   d.Origins,
			journal:   d.Journal,
			tracer:    d.Tracer,
			currency:  d.Currency,
			appOrigin: d.AppOrigin,
		},
	}
}

// BeginCheckout 冻结购物车、创建会话并套用默认选择。
func (s *CheckoutApplicationService) BeginCheckout(ctx context.Context, req *BeginCheckoutRequest) (*SessionView, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.BeginCheckout")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", req.CustomerID))

	snapshot, err := domain.ValidateCart(req.Lines)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	sess := domain.NewSession(req.CustomerID, snapshot)

	// 默认策略：默认地址优先、否则第一个；配送方式取第一个。
	// 任何一类查询失败都不致命，留空等推进校验去提示。
	addresses, err := s.customers.Addresses(ctx, req.CustomerID)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("Failed to load customer addresses, leaving selection empty")
	}
	methods, err := s.customers.DeliveryMethods(ctx)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("Failed to load delivery methods, leaving selection empty")
	}
	sess.Selection.ApplyDefaults(addresses, methods)

	if err := s.sessions.Save(ctx, sess); err != nil {
		span.RecordError(err)
		return nil, err
	}
	logger.Ctx(ctx).Info().
		Str("session_id", sess.ID).
		Int("lines", len(snapshot.Lines)).
		Msg("Checkout session started")
	return viewOf(sess), nil
}

// UpdateSelection 更新用户选择。只允许在 Info 步骤修改配送相关字段；
// 支付方式在进入 Payment 步骤后仍可更换（尚未下单时）。
func (s *CheckoutApplicationService) UpdateSelection(ctx context.Context, sessionID string, update SelectionUpdate) (*SessionView, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.UpdateSelection")
	defer span.End()

	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Step == domain.StepConfirmation {
		return nil, fmt.Errorf("selection is frozen in step %s", sess.Step)
	}
	if sess.Step == domain.StepPayment {
		// 下单前只剩支付方式可改
		update = SelectionUpdate{PaymentMethod: update.PaymentMethod}
	}
	update.applyTo(&sess.Selection)

	if err := s.sessions.Save(ctx, sess); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return viewOf(sess), nil
}

// AdvanceToPayment 执行 Info → Payment 的推进，失败时一次性报出全部违反项。
func (s *CheckoutApplicationService) AdvanceToPayment(ctx context.Context, sessionID string) (*SessionView, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.AdvanceToPayment")
	defer span.End()

	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.AdvanceToPayment(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return viewOf(sess), nil
}

// PlaceOrder 执行 Payment → Confirmation 的推进：
// 先提交订单（每个会话恰好一次），成功后立刻发起支付。
// 支付发起失败时订单保留、会话照样进入 Confirmation——
// 这是一个合法的部分状态，绝不悄悄丢掉已创建的订单。
func (s *CheckoutApplicationService) PlaceOrder(ctx context.Context, sessionID, clientAgent string) (*SessionView, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.PlaceOrder")
	defer span.End()
	span.SetAttributes(attribute.String("checkout.session_id", sessionID))

	// 进程内防重：同一会话的第二个并发提交直接拒绝
	if _, busy := s.inflight.LoadOrStore(sessionID, struct{}{}); busy {
		metrics.SubmissionsRejected.Inc()
		span.SetStatus(codes.Error, "duplicate in-flight submission")
		return nil, domain.ErrSubmissionInFlight
	}
	defer s.inflight.Delete(sessionID)

	// 跨实例防重：ZooKeeper 会话锁
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, sessionID)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		defer release()
	}

	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch sess.Step {
	case domain.StepInfo:
		return nil, domain.NewValidationError("checkout has not advanced past the info step")
	case domain.StepConfirmation:
		return nil, fmt.Errorf("order already placed for session %s", sessionID)
	}

	if sess.Order == nil {
		order, err := s.submitter.Submit(ctx, sess)
		if err != nil {
			// 提交失败：状态机停在 Payment，不存任何部分订单
			return nil, err
		}
		if err := sess.AttachOrder(order); err != nil {
			return nil, err
		}
		if err := s.sessions.Save(ctx, sess); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	handle, payErr := s.initiator.Initiate(ctx, sess, clientAgent)
	if payErr != nil {
		// 订单已创建且有效，不回滚；提示挂到会话上，用户可原单重试
		sess.PaymentNotice = payErr.Error()
		span.AddEvent("Payment initiation failed, order preserved for retry")
	} else {
		if err := sess.AttachPayment(handle); err != nil {
			return nil, err
		}
	}

	if err := sess.EnterConfirmation(); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return viewOf(sess), nil
}

// RetryPayment 针对已存在的订单重新发起支付，不会重建订单。
func (s *CheckoutApplicationService) RetryPayment(ctx context.Context, sessionID, clientAgent string) (*SessionView, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.RetryPayment")
	defer span.End()

	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Order == nil {
		return nil, domain.NewValidationError("no order to pay for; place the order first")
	}
	if sess.PaymentConfirmed {
		return nil, fmt.Errorf("payment already confirmed for session %s", sessionID)
	}
	if sess.Payment != nil {
		// 旧句柄作废，换新的
		sess.Payment = nil
	}

	handle, err := s.initiator.Initiate(ctx, sess, clientAgent)
	if err != nil {
		sess.PaymentNotice = err.Error()
		if saveErr := s.sessions.Save(ctx, sess); saveErr != nil {
			logger.Ctx(ctx).Error().Err(saveErr).Msg("Failed to persist payment notice")
		}
		return nil, err
	}
	if err := sess.AttachPayment(handle); err != nil {
		return nil, err
	}
	sess.PaymentNotice = ""
	if err := s.sessions.Save(ctx, sess); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return viewOf(sess), nil
}

// Restart 即"重新下单"：清掉订单与支付句柄，回到 Payment 步骤。
func (s *CheckoutApplicationService) Restart(ctx context.Context, sessionID string) (*SessionView, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Restart")
	defer span.End()

	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.Restart()
	if err := s.sessions.Save(ctx, sess); err != nil {
		span.RecordError(err)
		return nil, err
	}
	logger.Ctx(ctx).Info().Str("session_id", sess.ID).Msg("Checkout session restarted")
	return viewOf(sess), nil
}

// GetSession 返回会话视图。
func (s *CheckoutApplicationService) GetSession(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return viewOf(sess), nil
}

// Discard 丢弃会话（用户离开结账）。
func (s *CheckoutApplicationService) Discard(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// HandleConfirmation 处理确认通道上的一条消息。
// 来源不在白名单内的消息只记日志、不处理、不回显（防伪造边界）。
// 监听未武装（还没进 Confirmation、或没有网关型支付句柄）时消息被忽略。
// PAYMENT_SUCCESS 幂等；ERROR / CANCEL 只更新提示。
func (s *CheckoutApplicationService) HandleConfirmation(ctx context.Context, sessionID string, msg domain.ConfirmationMessage) error {
	ctx, span := s.tracer.Start(ctx, "checkout.HandleConfirmation", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("checkout.session_id", sessionID),
		attribute.String("confirmation.type", string(msg.Type)),
	)

	if !s.trusted.Trusted(msg.Origin) {
		metrics.ConfirmationsDropped.WithLabelValues("untrusted_origin").Inc()
		logger.Ctx(ctx).Warn().
			Str("origin", msg.Origin).
			Str("session_id", sessionID).
			Msg("Dropping confirmation message from untrusted origin")
		span.SetStatus(codes.Error, "untrusted origin")
		return domain.ErrUntrustedOrigin
	}

	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		metrics.ConfirmationsDropped.WithLabelValues("unknown_session").Inc()
		return err
	}
	if !sess.ConfirmationArmed() {
		metrics.ConfirmationsDropped.WithLabelValues("not_armed").Inc()
		logger.Ctx(ctx).Info().
			Str("session_id", sessionID).
			Str("step", string(sess.Step)).
			Msg("Confirmation message ignored, listener not armed")
		return nil
	}

	changed := sess.ApplyConfirmation(msg)
	if !changed {
		// 重复的成功消息：幂等，无可观察差别
		return nil
	}
	metrics.ConfirmationsAccepted.WithLabelValues(string(msg.Type)).Inc()
	if err := s.sessions.Save(ctx, sess); err != nil {
		span.RecordError(err)
		return err
	}
	logger.Ctx(ctx).Info().
		Str("session_id", sessionID).
		Str("type", string(msg.Type)).
		Bool("payment_confirmed", sess.PaymentConfirmed).
		Msg("Confirmation message applied")
	return nil
}
