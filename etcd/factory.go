package etcd

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// ClientFactory etcd 客户端工厂。注入器关闭时 Close 被调用
type ClientFactory struct {
	clients map[string]*clientv3.Client
	mu      sync.RWMutex
}

// NewClientFactory 创建客户端工厂
func NewClientFactory() *ClientFactory {
	return &ClientFactory{
		clients: make(map[string]*clientv3.Client),
	}
}

// Register 注册 etcd 客户端
func (f *ClientFactory) Register(name string, opts ClientOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.clients[name]; exists {
		return fmt.Errorf("etcd client '%s' already registered", name)
	}

	client, err := clientv3.New(opts.clientConfig())
	if err != nil {
		return fmt.Errorf("failed to create etcd client '%s': %w", name, err)
	}

	f.clients[name] = client
	return nil
}

// Get 获取指定名称的客户端
func (f *ClientFactory) Get(name string) (*clientv3.Client, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	client, exists := f.clients[name]
	if !exists {
		return nil, fmt.Errorf("etcd client '%s' not found", name)
	}
	return client, nil
}

// Each 遍历所有客户端
func (f *ClientFactory) Each(fn func(name string, client *clientv3.Client)) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for name, client := range f.clients {
		fn(name, client)
	}
}

// Names 返回已登记的客户端名称（已排序）
func (f *ClientFactory) Names() []string {
	names := make([]string, 0)
	f.Each(func(name string, _ *clientv3.Client) {
		names = append(names, name)
	})
	sort.Strings(names)
	return names
}

// Close 关闭所有 etcd 客户端
func (f *ClientFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for name, client := range f.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close etcd client '%s': %w", name, err))
		}
	}
	f.clients = make(map[string]*clientv3.Client)

	return errors.Join(errs...)
}
