// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"meridian/internal/pkg/logger"
	"meridian/internal/pkg/nacos"
	"meridian/internal/pkg/tracing"
	"meridian/internal/pkg/utils"

	"golang.org/x/sync/errgroup"
)

// AppInfo 包含了启动服务所需的全部特定信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(mux *http.ServeMux) // 每个服务注册自己独特的 HTTP 路由
	Runners          []func(ctx context.Context) error
}

// StartService 封装了通用的启动和优雅关停逻辑：
// Tracer、Nacos 注册、HTTP Server、后台 Runner（消费者 / 对账器）。
// 阻塞直到 ctx 结束，随后按后进先出的顺序做清理。
func StartService(ctx context.Context, cfg *Config, info AppInfo) error {
	// 1. Tracer
	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		return err
	}

	// 2. 服务注册（可选）
	var naming *nacos.Client
	var ip string
	if cfg.Infra.Nacos.Enabled {
		naming, err = nacos.New(cfg.Infra.Nacos.Addrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
		if err != nil {
			return err
		}
		ip, err = utils.GetOutboundIP()
		if err != nil {
			return err
		}
		if err := naming.Register(info.ServiceName, ip, info.Port); err != nil {
			return err
		}
	}

	// 3. HTTP Server
	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(mux)
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Msgf("%s listening on :%d", info.ServiceName, info.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	for _, run := range info.Runners {
		run := run
		g.Go(func() error { return run(gctx) })
	}

	// 4. 等待退出信号或任一 Runner 失败
	<-gctx.Done()
	logger.Info().Msgf("Shutting down service %s...", info.ServiceName)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 5. 清理，后进先出
	if naming != nil {
		if err := naming.Deregister(info.ServiceName, ip, info.Port); err != nil {
			logger.Error().Err(err).Msg("Error deregistering from Nacos")
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error shutting down http server")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error shutting down tracer provider")
	}

	err = g.Wait()
	logger.Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
	return err
}
