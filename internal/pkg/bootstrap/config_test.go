// internal/pkg/bootstrap/config_test.go
package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "checkout-service", cfg.Service.Name)
	assert.Equal(t, 8080, cfg.Service.Port)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Infra.Kafka.Brokers)
	assert.Equal(t, "payment-confirmation-topic", cfg.Infra.Kafka.ConfirmationTopic)
	assert.Equal(t, 24*time.Hour, cfg.Infra.Redis.SessionTTL)
	assert.Equal(t, "IDR", cfg.Checkout.Currency)
	assert.Equal(t, 5*time.Minute, cfg.Checkout.ConfirmationGrace)
}

func TestLoad_FileWithEnvOverride(t *testing.T) {
	raw := `
service:
  name: checkout-service
  port: 9000
infra:
  redis:
    addrs: redis-a:6379,redis-b:6379
checkout:
  app_origin: https://shop.example.com
  gateway_origin: https://gateway.example.com
  currency: USD
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Service.Port)
	assert.Equal(t, "redis-a:6379,redis-b:6379", cfg.Infra.Redis.Addrs)
	assert.Equal(t, "USD", cfg.Checkout.Currency)
	// 环境变量覆盖文件值
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Infra.Kafka.Brokers)
	assert.Equal(t, "https://gateway.example.com", cfg.Checkout.GatewayOrigin)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}
