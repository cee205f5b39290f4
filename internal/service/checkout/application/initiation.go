// internal/service/checkout/application/initiation.go
package application

import (
	"context"
	"errors"
	"fmt"

	"meridian/internal/pkg/logger"
	"meridian/internal/pkg/metrics"
	"meridian/internal/service/checkout/domain"
	"meridian/internal/service/checkout/domain/port"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// paymentInitiator 负责支付发起这一个步骤：
// 映射网关路由、尽力探测客户端来源、调用支付服务。
// 发起失败不回滚订单——订单依旧有效，用户可以原单重试。
type paymentInitiator struct {
	payments  port.PaymentService
	origins   port.OriginResolver
	journal   port.AttemptJournal
	tracer    trace.Tracer
	currency  string
	appOrigin string
}

// Initiate 针对已存在的订单发起支付。
func (p *paymentInitiator) Initiate(ctx context.Context, sess *domain.Session, clientAgent string) (*domain.PaymentHandle, error) {
	ctx, span := p.tracer.Start(ctx, "checkout.InitiatePayment")
	defer span.End()

	order := sess.Order
	span.SetAttributes(
		attribute.String("checkout.session_id", sess.ID),
		attribute.String("order.id", order.ID),
		attribute.String("payment.method", string(sess.Selection.PaymentMethod)),
	)

	route, fellBack := domain.RouteFor(sess.Selection.PaymentMethod)
	if fellBack {
		logger.Ctx(ctx).Warn().
			Str("payment_method", string(sess.Selection.PaymentMethod)).
			Msg("Unknown payment method, falling back to instant gateway route")
	}

	// 来源探测是纯粹的附加信息，失败就留空，绝不拦住支付
	clientOrigin, err := p.origins.ClientOrigin(ctx)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("Client origin lookup failed, proceeding without it")
		clientOrigin = ""
	}

	req := domain.PaymentInitiationRequest{
		OrderID:      order.ID,
		Method:       route.Method,
		Currency:     p.currency,
		PaymentType:  route.Type,
		ClientOrigin: clientOrigin,
		ClientAgent:  clientAgent,
		ReturnURL:    fmt.Sprintf("%s/order-success/%s", p.appOrigin, order.ID),
	}

	handle, err := p.payments.InitiatePayment(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment initiation failed")
		metrics.PaymentsInitiated.WithLabelValues("failure", string(route.Type)).Inc()
		p.record(ctx, sess.ID, order.ID, "failure", err)
		return nil, err
	}
	if handle.Type == "" {
		handle.Type = route.Type
	}

	span.SetAttributes(attribute.String("payment.id", handle.PaymentID))
	metrics.PaymentsInitiated.WithLabelValues("success", string(route.Type)).Inc()
	p.record(ctx, sess.ID, order.ID, "success", nil)
	logger.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Str("payment_id", handle.PaymentID).
		Str("route", string(route.Type)).
		Msg("Payment initiated")
	return handle, nil
}

func (p *paymentInitiator) record(ctx context.Context, sessionID, orderID, outcome string, cause error) {
	entry := port.AttemptEntry{
		SessionID: sessionID,
		OrderID:   orderID,
		Stage:     "payment_initiation",
		Outcome:   outcome,
	}
	if cause != nil {
		entry.Detail = cause.Error()
		var pe *domain.PaymentError
		if errors.As(cause, &pe) {
			entry.StatusCode = pe.StatusCode
		}
	}
	if err := p.journal.Record(ctx, entry); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("Failed to journal payment initiation attempt")
	}
}
