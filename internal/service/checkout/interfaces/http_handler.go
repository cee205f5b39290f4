// internal/service/checkout/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"

	"meridian/internal/pkg/logger"
	"meridian/internal/service/checkout/application"
	"meridian/internal/service/checkout/domain"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const serviceName = "checkout-service"

// CheckoutHandler 封装了 checkout 服务的 HTTP 处理器
type CheckoutHandler struct {
	service *application.CheckoutApplicationService
}

// NewCheckoutHandler 创建一个新的 HTTP 处理器实例
func NewCheckoutHandler(service *application.CheckoutApplicationService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *CheckoutHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("POST /checkout/sessions", h.beginCheckout)
	mux.HandleFunc("GET /checkout/sessions/{id}", h.getSession)
	mux.HandleFunc("DELETE /checkout/sessions/{id}", h.discardSession)
	mux.HandleFunc("PATCH /checkout/sessions/{id}/selection", h.updateSelection)
	mux.HandleFunc("POST /checkout/sessions/{id}/advance", h.advanceToPayment)
	mux.HandleFunc("POST /checkout/sessions/{id}/place-order", h.placeOrder)
	mux.HandleFunc("POST /checkout/sessions/{id}/retry-payment", h.retryPayment)
	mux.HandleFunc("POST /checkout/sessions/{id}/restart", h.restart)
}

func (h *CheckoutHandler) beginCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(serviceName).Start(extract(r), "api.BeginCheckout")
	defer span.End()

	var req application.BeginCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	view, err := h.service.BeginCheckout(ctx, &req)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *CheckoutHandler) getSession(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	view, err := h.service.GetSession(ctx, r.PathValue("id"))
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CheckoutHandler) discardSession(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	if err := h.service.Discard(ctx, r.PathValue("id")); err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CheckoutHandler) updateSelection(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(serviceName).Start(extract(r), "api.UpdateSelection")
	defer span.End()

	var update application.SelectionUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, errors.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	view, err := h.service.UpdateSelection(ctx, r.PathValue("id"), update)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CheckoutHandler) advanceToPayment(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	view, err := h.service.AdvanceToPayment(ctx, r.PathValue("id"))
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CheckoutHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	view, err := h.service.PlaceOrder(ctx, r.PathValue("id"), r.UserAgent())
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CheckoutHandler) retryPayment(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	view, err := h.service.RetryPayment(ctx, r.PathValue("id"), r.UserAgent())
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CheckoutHandler) restart(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	view, err := h.service.Restart(ctx, r.PathValue("id"))
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// extract 从入站请求头恢复链路上下文。
func extract(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error, status int) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeDomainError 把领域错误映射到 HTTP 状态码。
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "validation failed",
			"violations": ve.Violations,
		})
		return
	}
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, err, http.StatusNotFound)
		return
	case errors.Is(err, domain.ErrSubmissionInFlight):
		writeError(w, err, http.StatusConflict)
		return
	}
	var oe *domain.OrderError
	if errors.As(err, &oe) {
		writeError(w, err, http.StatusBadGateway)
		return
	}
	var pe *domain.PaymentError
	if errors.As(err, &pe) {
		writeError(w, err, http.StatusBadGateway)
		return
	}
	logger.Ctx(ctx).Error().Err(err).Msg("Unhandled error in checkout handler")
	writeError(w, err, http.StatusInternalServerError)
}
