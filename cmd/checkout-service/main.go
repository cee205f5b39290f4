// cmd/checkout-service/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meridian/internal/pkg/bootstrap"
	"meridian/internal/pkg/httpclient"
	"meridian/internal/pkg/logger"
	"meridian/internal/pkg/mq"
	"meridian/internal/pkg/redis"
	"meridian/internal/pkg/zklock"
	"meridian/internal/service/checkout/application"
	"meridian/internal/service/checkout/domain"
	"meridian/internal/service/checkout/domain/port"
	"meridian/internal/service/checkout/infrastructure/adapter"
	"meridian/internal/service/checkout/interfaces"

	"go.opentelemetry.io/otel"
)

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	cfg, err := bootstrap.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	logger.Init(cfg.Service.Name)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracer := otel.Tracer(cfg.Service.Name)

	// --- 基础设施 ---
	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to Redis")
		os.Exit(1)
	}
	defer redisClient.Close()

	journal, err := adapter.NewAttemptJournalGorm(cfg.Infra.MySQL.DSN)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize attempt journal")
		os.Exit(1)
	}

	var locker port.SubmitLocker
	if len(cfg.Infra.Zookeeper.Servers) > 0 {
		zkConn, err := zklock.Connect(cfg.Infra.Zookeeper.Servers, 5*time.Second)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to connect to Zookeeper")
			os.Exit(1)
		}
		defer zkConn.Close()
		locker = adapter.NewZkSubmitLocker(zkConn, 10*time.Second)
	}

	httpClient := httpclient.NewClient(tracer)
	sessions := adapter.NewSessionRedisRepository(redisClient, cfg.Infra.Redis.SessionTTL)
	orders := adapter.NewOrderHTTPAdapter(httpClient, cfg.Checkout.OrderServiceURL)
	payments := adapter.NewPaymentHTTPAdapter(httpClient, cfg.Checkout.PaymentServiceURL)
	customers := adapter.NewCustomerHTTPAdapter(httpClient, cfg.Checkout.CustomerServiceURL)
	origins := adapter.NewOriginHTTPAdapter(httpClient, cfg.Checkout.OriginLookupURL)

	// 确认消息只信任支付网关和自家前端两个来源
	trusted := domain.OriginAllowList{cfg.Checkout.GatewayOrigin, cfg.Checkout.AppOrigin}

	// --- 应用服务 ---
	service := application.NewCheckoutApplicationService(application.Deps{
		Sessions:  sessions,
		Orders:    orders,
		Payments:  payments,
		Customers: customers,
		Origins:   origins,
		Journal:   journal,
		Locker:    locker,
		Trusted:   trusted,
		Tracer:    tracer,
		Currency:  cfg.Checkout.Currency,
		AppOrigin: cfg.Checkout.AppOrigin,
	})

	reconciler := application.NewReconciler(sessions, orders, journal, tracer,
		cfg.Checkout.ReconcileInterval, cfg.Checkout.ConfirmationGrace)

	// --- 入站适配器 ---
	httpHandler := interfaces.NewCheckoutHandler(service)
	wsHandler := interfaces.NewConfirmationWSHandler(service, trusted)

	reader := mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.ConfirmationTopic, cfg.Infra.Kafka.ConsumerGroup)
	consumer := interfaces.NewConfirmationConsumerAdapter(reader, service)

	err = bootstrap.StartService(ctx, cfg, bootstrap.AppInfo{
		ServiceName: cfg.Service.Name,
		Port:        cfg.Service.Port,
		RegisterHandlers: func(mux *http.ServeMux) {
			httpHandler.RegisterRoutes(mux)
			wsHandler.RegisterRoutes(mux)
		},
		Runners: []func(ctx context.Context) error{
			reconciler.Run,
			func(ctx context.Context) error {
				consumer.Start(ctx)
				<-ctx.Done()
				consumer.Stop()
				return nil
			},
		},
	})
	if err != nil {
		logger.Error().Err(err).Msg("Service exited with error")
		os.Exit(1)
	}
}
