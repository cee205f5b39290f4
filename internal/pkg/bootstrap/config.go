// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 聚合了 checkout-service 的全部可配置项。
// 以 YAML 文件为基准，个别敏感或随环境变化的项可用环境变量覆盖。
type Config struct {
	Service struct {
		Name string `yaml:"name"`
		Port int    `yaml:"port"`
	} `yaml:"service"`

	Infra struct {
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Kafka struct {
			Brokers           []string `yaml:"brokers"`
			ConfirmationTopic string   `yaml:"confirmation_topic"`
			ConsumerGroup     string   `yaml:"consumer_group"`
		} `yaml:"kafka"`
		Redis struct {
			Addrs      string        `yaml:"addrs"`
			SessionTTL time.Duration `yaml:"session_ttl"`
		} `yaml:"redis"`
		MySQL struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Zookeeper struct {
			Servers []string `yaml:"servers"`
		} `yaml:"zookeeper"`
		Nacos struct {
			Enabled   bool   `yaml:"enabled"`
			Addrs     string `yaml:"addrs"`
			Namespace string `yaml:"namespace"`
			Group     string `yaml:"group"`
		} `yaml:"nacos"`
	} `yaml:"infra"`

	Checkout struct {
		AppOrigin          string        `yaml:"app_origin"`
		GatewayOrigin      string        `yaml:"gateway_origin"`
		Currency           string        `yaml:"currency"`
		OrderServiceURL    string        `yaml:"order_service_url"`
		PaymentServiceURL  string        `yaml:"payment_service_url"`
		CustomerServiceURL string        `yaml:"customer_service_url"`
		OriginLookupURL    string        `yaml:"origin_lookup_url"`
		ReconcileInterval  time.Duration `yaml:"reconcile_interval"`
		ConfirmationGrace  time.Duration `yaml:"confirmation_grace"`
	} `yaml:"checkout"`
}

// Load 读取 YAML 配置并应用环境变量覆盖和默认值。
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := getEnv("KAFKA_BROKERS", ""); v != "" {
		c.Infra.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getEnv("REDIS_ADDRS", ""); v != "" {
		c.Infra.Redis.Addrs = v
	}
	if v := getEnv("MYSQL_DSN", ""); v != "" {
		c.Infra.MySQL.DSN = v
	}
	if v := getEnv("JAEGER_ENDPOINT", ""); v != "" {
		c.Infra.Jaeger.Endpoint = v
	}
	if v := getEnv("ZOOKEEPER_SERVERS", ""); v != "" {
		c.Infra.Zookeeper.Servers = strings.Split(v, ",")
	}
	if v := getEnv("NACOS_SERVER_ADDRS", ""); v != "" {
		c.Infra.Nacos.Addrs = v
	}
	if v := getEnv("NACOS_NAMESPACE", ""); v != "" {
		c.Infra.Nacos.Namespace = v
	}
	if v := getEnv("NACOS_GROUP", ""); v != "" {
		c.Infra.Nacos.Group = v
	}
}

func (c *Config) applyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = "checkout-service"
	}
	if c.Service.Port == 0 {
		c.Service.Port = 8080
	}
	if c.Infra.Jaeger.Endpoint == "" {
		c.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	}
	if len(c.Infra.Kafka.Brokers) == 0 {
		c.Infra.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Infra.Kafka.ConfirmationTopic == "" {
		c.Infra.Kafka.ConfirmationTopic = "payment-confirmation-topic"
	}
	if c.Infra.Kafka.ConsumerGroup == "" {
		c.Infra.Kafka.ConsumerGroup = "checkout-confirmation-consumer-group"
	}
	if c.Infra.Redis.Addrs == "" {
		c.Infra.Redis.Addrs = "localhost:6379"
	}
	if c.Infra.Redis.SessionTTL == 0 {
		c.Infra.Redis.SessionTTL = 24 * time.Hour
	}
	if c.Checkout.Currency == "" {
		c.Checkout.Currency = "IDR"
	}
	if c.Checkout.ReconcileInterval == 0 {
		c.Checkout.ReconcileInterval = time.Minute
	}
	if c.Checkout.ConfirmationGrace == 0 {
		c.Checkout.ConfirmationGrace = 5 * time.Minute
	}
}

// getEnv 从环境变量中读取配置，缺省时返回 fallback。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
