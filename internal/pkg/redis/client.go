// internal/pkg/redis/client.go
package redis

import (
	"context"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Client 封装了 go-redis 的 UniversalClient，
// 单机地址与集群地址（逗号分隔）均可直接使用。
type Client struct {
	rdb goredis.UniversalClient
}

// NewClient 创建一个新的 Redis 客户端。addrs 格式为 "host1:port1,host2:port2"。
func NewClient(addrs string) (*Client, error) {
	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs: strings.Split(addrs, ","),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Client{rdb: rdb}, nil
}

// GetClient 暴露底层客户端，供需要 pipeline / scan 等高级操作的调用方使用。
func (c *Client) GetClient() goredis.UniversalClient {
	return c.rdb
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
