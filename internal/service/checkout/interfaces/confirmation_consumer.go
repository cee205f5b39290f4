// internal/service/checkout/interfaces/confirmation_consumer.go
package interfaces

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"meridian/internal/pkg/logger"
	"meridian/internal/pkg/mq"
	"meridian/internal/service/checkout/application"
	"meridian/internal/service/checkout/domain"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// gatewayConfirmationEvent 是支付网关发到确认主题的消息体。
type gatewayConfirmationEvent struct {
	SessionID string `json:"sessionId"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	OrderID   string `json:"orderId"`
	Origin    string `json:"origin"`
}

// ConfirmationConsumerAdapter 是服务端侧的确认通道：
// 监听网关的确认主题并驱动应用服务，与 WebSocket 通道互为补充。
type ConfirmationConsumerAdapter struct {
	reader  *kafka.Reader
	service *application.CheckoutApplicationService
	wg      sync.WaitGroup
	stopped bool
}

func NewConfirmationConsumerAdapter(reader *kafka.Reader, service *application.CheckoutApplicationService) *ConfirmationConsumerAdapter {
	return &ConfirmationConsumerAdapter{reader: reader, service: service}
}

// Start 开始监听确认主题。这是一个长期运行的方法。
func (a *ConfirmationConsumerAdapter) Start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		logger.Info().Str("topic", a.reader.Config().Topic).Msg("✅ Confirmation consumer started")
		for {
			if a.stopped {
				return
			}
			// 用 FetchMessage 而不是 ReadMessage，便于控制退出和手动提交
			msg, err := a.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Info().Msg("🛑 Confirmation consumer shutting down.")
					return
				}
				logger.Error().Err(err).Msg("Could not read confirmation message, retrying")
				time.Sleep(1 * time.Second)
				continue
			}

			a.processMessage(ctx, msg)

			// 确认处理是幂等的，处理完成再提交 Offset
			if err := a.reader.CommitMessages(ctx, msg); err != nil {
				logger.Error().Err(err).Msg("Failed to commit confirmation offset")
			}
		}
	}()
}

// Stop 优雅地停止消费者。
func (a *ConfirmationConsumerAdapter) Stop() {
	a.stopped = true
	a.reader.Close()
	a.wg.Wait()
	logger.Info().Msg("✅ Confirmation consumer stopped.")
}

func (a *ConfirmationConsumerAdapter) processMessage(parentCtx context.Context, msg kafka.Message) {
	var event gatewayConfirmationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Error().Err(err).Msg("Failed to unmarshal confirmation event, message skipped")
		return
	}

	headerCarrier := mq.KafkaHeaderCarrier(msg.Headers)
	ctx := otel.GetTextMapPropagator().Extract(parentCtx, &headerCarrier)

	confirmation := domain.ConfirmationMessage{
		Type:    domain.ConfirmationType(event.Type),
		Message: event.Message,
		OrderID: event.OrderID,
		Origin:  event.Origin,
	}
	if err := a.service.HandleConfirmation(ctx, event.SessionID, confirmation); err != nil {
		// 不可信来源和未知会话都不值得重投，记日志后照常提交
		logger.Ctx(ctx).Warn().Err(err).
			Str("session_id", event.SessionID).
			Str("type", event.Type).
			Msg("Confirmation event not applied")
	}
}
