// internal/service/checkout/application/submission.go
package application

import (
	"context"
	"errors"

	"meridian/internal/pkg/logger"
	"meridian/internal/pkg/metrics"
	"meridian/internal/service/checkout/domain"
	"meridian/internal/service/checkout/domain/port"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// orderSubmitter 负责订单提交这一个步骤：
// 重新校验快照、派生创建请求、恰好调用一次订单服务。
// 网络失败不自动重试——没有服务端配合的重试可能产生重复订单，
// 失败直接上抛，由用户显式重新发起。
type orderSubmitter struct {
	orders  port.OrderService
	journal port.AttemptJournal
	tracer  trace.Tracer
}

// Submit 针对会话提交订单。成功返回订单；失败返回 *domain.OrderError，
// 不会留下任何部分订单。
func (s *orderSubmitter) Submit(ctx context.Context, sess *domain.Session) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.SubmitOrder")
	defer span.End()
	span.SetAttributes(attribute.String("checkout.session_id", sess.ID))

	// 纵深防御：快照在冻结时已经校验过，提交前再验一遍商品 ID
	if _, err := domain.ValidateCart(sess.Snapshot.Lines); err != nil {
		span.RecordError(err)
		return nil, err
	}

	req := domain.BuildOrderRequest(sess.CustomerID, sess.Snapshot, sess.Selection)

	order, err := s.orders.CreateOrder(ctx, req, sess.AttemptToken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order submission failed")
		metrics.OrdersSubmitted.WithLabelValues("failure").Inc()
		s.record(ctx, sess.ID, "", "order_submission", "failure", err)
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID))
	metrics.OrdersSubmitted.WithLabelValues("success").Inc()
	s.record(ctx, sess.ID, order.ID, "order_submission", "success", nil)
	logger.Ctx(ctx).Info().
		Str("session_id", sess.ID).
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Msg("Order created")
	return order, nil
}

func (s *orderSubmitter) record(ctx context.Context, sessionID, orderID, stage, outcome string, cause error) {
	entry := port.AttemptEntry{
		SessionID: sessionID,
		OrderID:   orderID,
		Stage:     stage,
		Outcome:   outcome,
	}
	if cause != nil {
		entry.Detail = cause.Error()
		var oe *domain.OrderError
		if errors.As(cause, &oe) {
			entry.StatusCode = oe.StatusCode
		}
	}
	if err := s.journal.Record(ctx, entry); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("Failed to journal order submission attempt")
	}
}
