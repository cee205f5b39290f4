// internal/service/checkout/application/reconciler.go
package application

import (
	"context"
	"time"

	"meridian/internal/pkg/logger"
	"meridian/internal/pkg/metrics"
	"meridian/internal/service/checkout/domain"
	"meridian/internal/service/checkout/domain/port"

	"go.opentelemetry.io/otel/trace"
)

// Reconciler 是推送通道的兜底：周期性地把停留在 Confirmation、
// 超过宽限期仍未确认的会话拿去向订单服务对账。
// 网关的确认消息可能丢失或永远不来（用户关掉了支付页），
// 上游查到的支付状态才是最终事实。
type Reconciler struct {
	sessions domain.SessionRepository
	orders   port.OrderService
	journal  port.AttemptJournal
	tracer   trace.Tracer
	interval time.Duration
	grace    time.Duration
}

func NewReconciler(sessions domain.SessionRepository, orders port.OrderService, journal port.AttemptJournal, tracer trace.Tracer, interval, grace time.Duration) *Reconciler {
	return &Reconciler{
		sessions: sessions,
		orders:   orders,
		journal:  journal,
		tracer:   tracer,
		interval: interval,
		grace:    grace,
	}
}

// Run 周期执行对账，直到 ctx 结束。作为后台 Runner 由 bootstrap 拉起。
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", r.interval).Msg("✅ Payment reconciliation worker started")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("🛑 Payment reconciliation worker shutting down.")
			return nil
		case <-ticker.C:
			if err := r.sweep(ctx); err != nil {
				logger.Error().Err(err).Msg("Reconciliation sweep failed")
			}
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "checkout.ReconcileSweep")
	defer span.End()

	ids, err := r.sessions.ActiveIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := r.reconcileSession(ctx, id); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("session_id", id).Msg("Failed to reconcile session")
		}
	}
	return nil
}

func (r *Reconciler) reconcileSession(ctx context.Context, sessionID string) error {
	sess, err := r.sessions.FindByID(ctx, sessionID)
	if err != nil {
		// 会话可能在扫描和读取之间被丢弃，不算错误
		if err == domain.ErrSessionNotFound {
			return nil
		}
		return err
	}
	if sess.Step != domain.StepConfirmation || sess.PaymentConfirmed || sess.Order == nil {
		return nil
	}
	if time.Since(sess.UpdatedAt) < r.grace {
		return nil
	}

	order, err := r.orders.GetOrder(ctx, sess.Order.ID)
	if err != nil {
		return err
	}
	if order.PaymentStatus != domain.PaymentStatusPaid {
		return nil
	}

	// 上游已经收到钱，而确认消息没到：以上游为准补上确认
	sess.Order = order
	sess.ApplyConfirmation(domain.ConfirmationMessage{Type: domain.ConfirmationPaymentSuccess})
	if err := r.sessions.Save(ctx, sess); err != nil {
		return err
	}
	metrics.ConfirmationsAccepted.WithLabelValues("reconciled").Inc()
	if err := r.journal.Record(ctx, port.AttemptEntry{
		SessionID: sess.ID,
		OrderID:   order.ID,
		Stage:     "reconciliation",
		Outcome:   "success",
		Detail:    "payment confirmed by polling order service",
	}); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("Failed to journal reconciliation")
	}
	logger.Ctx(ctx).Info().
		Str("session_id", sess.ID).
		Str("order_id", order.ID).
		Msg("Abandoned confirmation resolved by reconciliation")
	return nil
}
