package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ClientFactory 按名称管理 Redis 客户端。
// 注入器关闭时 Close 被调用，关闭所有客户端。
type ClientFactory struct {
	clients map[string]*redis.Client
	mu      sync.RWMutex
}

// NewClientFactory 创建客户端工厂
func NewClientFactory() *ClientFactory {
	return &ClientFactory{
		clients: make(map[string]*redis.Client),
	}
}

// Register 创建并登记客户端。go-redis 的连接是惰性的，这里不会访问网络
func (f *ClientFactory) Register(name string, opts ClientOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.clients[name]; exists {
		return fmt.Errorf("redis client '%s' already registered", name)
	}

	f.clients[name] = redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout.Std(),
		ReadTimeout:  opts.ReadTimeout.Std(),
		WriteTimeout: opts.WriteTimeout.Std(),
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		MaxRetries:   opts.MaxRetries,
	})
	return nil
}

// Get 获取指定名称的 Redis 客户端
func (f *ClientFactory) Get(name string) (*redis.Client, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	client, exists := f.clients[name]
	if !exists {
		return nil, fmt.Errorf("redis client '%s' not found", name)
	}
	return client, nil
}

// Names 返回已登记的客户端名称（已排序）
func (f *ClientFactory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.clients))
	for name := range f.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ping 检查所有客户端的连接
func (f *ClientFactory) Ping(ctx context.Context) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var errs []error
	for name, client := range f.clients {
		if err := client.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis client '%s': %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Close 关闭所有 Redis 客户端
func (f *ClientFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for name, client := range f.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client '%s': %w", name, err))
		}
	}
	f.clients = make(map[string]*redis.Client)

	return errors.Join(errs...)
}
