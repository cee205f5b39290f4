// internal/service/checkout/interfaces/confirmation_ws_handler.go
package interfaces

import (
	"net/http"

	"meridian/internal/pkg/logger"
	"meridian/internal/service/checkout/application"
	"meridian/internal/service/checkout/domain"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// ConfirmationWSHandler 是浏览器侧的确认通道：支付页回跳后，
// 前端经 WebSocket 把网关的确认回执转交给本服务。
// 来源校验分两层：握手阶段 CheckOrigin 挡掉陌生页面，
// 每条消息再按 Origin 头走一遍白名单（与 Kafka 通道同一套判定）。
type ConfirmationWSHandler struct {
	service  *application.CheckoutApplicationService
	trusted  domain.OriginAllowList
	upgrader websocket.Upgrader
}

func NewConfirmationWSHandler(service *application.CheckoutApplicationService, trusted domain.OriginAllowList) *ConfirmationWSHandler {
	h := &ConfirmationWSHandler{service: service, trusted: trusted}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return trusted.Trusted(r.Header.Get("Origin"))
		},
	}
	return h
}

// RegisterRoutes 在 ServeMux 上注册 WebSocket 路由
func (h *ConfirmationWSHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /checkout/sessions/{id}/confirmation", h.serve)
}

type wsAck struct {
	Accepted bool                     `json:"accepted"`
	Session  *application.SessionView `json:"session,omitempty"`
}

func (h *ConfirmationWSHandler) serve(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	sessionID := r.PathValue("id")
	origin := r.Header.Get("Origin")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("origin", origin).Msg("Confirmation websocket upgrade rejected")
		return
	}
	defer conn.Close()
	logger.Ctx(ctx).Info().Str("session_id", sessionID).Msg("Confirmation websocket connected")

	for {
		var msg domain.ConfirmationMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("Confirmation websocket closed unexpectedly")
			}
			return
		}
		// 消息来源取连接的 Origin 头，不信客户端自报的字段
		msg.Origin = origin

		err := h.service.HandleConfirmation(ctx, sessionID, msg)
		if errors.Is(err, domain.ErrUntrustedOrigin) {
			// 不回显，让伪造方探不出任何东西
			continue
		}
		ack := wsAck{Accepted: err == nil}
		if err == nil {
			if view, viewErr := h.service.GetSession(ctx, sessionID); viewErr == nil {
				ack.Session = view
				if err := conn.WriteJSON(ack); err != nil {
					return
				}
				// 确认落定后通道完成使命
				if view.PaymentConfirmed {
					conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "payment confirmed"))
					return
				}
				continue
			}
		}
		if err := conn.WriteJSON(ack); err != nil {
			return
		}
	}
}
