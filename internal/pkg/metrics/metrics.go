// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 结账核心的业务指标。outcome 取值为 success / failure，
// route 为支付路由类型，type 为确认消息类型。
var (
	OrdersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_submitted_total",
		Help: "Order submission attempts by outcome.",
	}, []string{"outcome"})

	PaymentsInitiated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_payments_initiated_total",
		Help: "Payment initiation attempts by outcome and gateway route.",
	}, []string{"outcome", "route"})

	ConfirmationsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_confirmations_accepted_total",
		Help: "Confirmation channel messages acted upon, by message type.",
	}, []string{"type"})

	ConfirmationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_confirmations_dropped_total",
		Help: "Confirmation channel messages discarded, by reason.",
	}, []string{"reason"})

	SubmissionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_submissions_rejected_total",
		Help: "Duplicate in-flight submissions rejected by the session guard.",
	})
)
