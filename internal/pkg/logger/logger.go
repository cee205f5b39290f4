// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// base 是全局的基础 logger，所有日志都从它派生。
var base = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init 初始化全局 logger，注入服务名字段。
// 应在进程启动时调用一次。
func Init(serviceName string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	base = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Ctx 返回一个绑定了当前链路信息的 logger。
// 如果 ctx 中存在有效的 Span，日志会自动带上 trace_id / span_id，
// 便于在 Jaeger 和日志系统之间互相跳转。
func Ctx(ctx context.Context) *zerolog.Logger {
	l := base
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		l = l.With().
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String()).
			Logger()
	}
	return &l
}

// Info 返回全局 logger 的 Info 事件，用于没有请求上下文的场景。
func Info() *zerolog.Event {
	return base.Info()
}

// Error 返回全局 logger 的 Error 事件。
func Error() *zerolog.Event {
	return base.Error()
}

// WithContext 将全局 logger 挂到 ctx 上，兼容 zerolog.Ctx 的取用方式。
func WithContext(ctx context.Context) context.Context {
	return base.WithContext(ctx)
}
