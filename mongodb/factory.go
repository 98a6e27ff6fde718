package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gocrud/mgo"
)

// ClientFactory 按名称管理 MongoDB 客户端，实现 di.Disposer
type ClientFactory struct {
	clients map[string]*mgo.Client
	mu      sync.RWMutex
}

// NewClientFactory 创建客户端工厂
func NewClientFactory() *ClientFactory {
	return &ClientFactory{
		clients: make(map[string]*mgo.Client),
	}
}

// Register 创建并登记客户端。驱动在后台建立连接，这里只校验配置
func (f *ClientFactory) Register(name string, opts ClientOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.clients[name]; exists {
		return fmt.Errorf("mongo client '%s' already registered", name)
	}

	timeout := opts.Timeout.Std()
	if timeout <= 0 {
		timeout = time.Duration(DefaultOptions().Timeout)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mgo.NewClient(ctx, opts.URI, opts.driverOptions())
	if err != nil {
		return fmt.Errorf("failed to create mongo client '%s': %w", name, err)
	}

	f.clients[name] = client
	return nil
}

// Get 获取指定名称的客户端
func (f *ClientFactory) Get(name string) (*mgo.Client, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	client, exists := f.clients[name]
	if !exists {
		return nil, fmt.Errorf("mongo client '%s' not found", name)
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

// Dispose 断开所有客户端
func (f *ClientFactory) Dispose(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for name, client := range f.clients {
		if err := client.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close mongo client '%s': %w", name, err))
		}
	}
	f.clients = make(map[string]*mgo.Client)

	return errors.Join(errs...)
}
