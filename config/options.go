package config

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Option 静态配置选项，加载一次之后不再更新
type Option[T any] interface {
	Value() T
}

// OptionMonitor 总是返回最近一次成功绑定的配置值
type OptionMonitor[T any] interface {
	Value() T
}

// OptionsCache 绑定一个配置节，配置重新加载后自动更新。
// 绑定失败时保留上一次的值，错误通过 Err 获取。
type OptionsCache[T any] struct {
	config  Configuration
	section string
	current atomic.Pointer[T]

	mu       sync.Mutex
	err      error
	watchers []func(T)
}

// NewOptionsCache 创建配置缓存，节不存在时值为 T 的零值
func NewOptionsCache[T any](config Configuration, section string) *OptionsCache[T] {
	cache := &OptionsCache[T]{
		config:  config,
		section: section,
	}
	cache.current.Store(new(T))
	cache.reload()

	if rc, ok := config.(Reloadable); ok {
		rc.OnReload(cache.reload)
	}
	return cache
}

func (c *OptionsCache[T]) reload() {
	var value T
	var err error
	if hasSection(c.config, c.section) {
		err = c.config.Bind(c.section, &value)
	}

	c.mu.Lock()
	if err != nil {
		c.err = fmt.Errorf("failed to bind config section %s: %w", c.section, err)
		c.mu.Unlock()
		return
	}
	c.err = nil
	c.current.Store(&value)
	watchers := append(([]func(T))(nil), c.watchers...)
	c.mu.Unlock()

	for _, fn := range watchers {
		fn(value)
	}
}

// Get 获取当前配置值
func (c *OptionsCache[T]) Get() T {
	return *c.current.Load()
}

// Err 返回最近一次绑定的错误
func (c *OptionsCache[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// OnChange 在每次成功重新绑定后调用 fn
func (c *OptionsCache[T]) OnChange(fn func(T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers = append(c.watchers, fn)
}

type option[T any] struct {
	value T
}

func (o *option[T]) Value() T {
	return o.value
}

// NewOption 创建静态配置选项
func NewOption[T any](value T) Option[T] {
	return &option[T]{value: value}
}

type optionMonitor[T any] struct {
	cache *OptionsCache[T]
}

func (o *optionMonitor[T]) Value() T {
	return o.cache.Get()
}

// NewOptionMonitor 创建跟随缓存更新的配置选项
func NewOptionMonitor[T any](cache *OptionsCache[T]) OptionMonitor[T] {
	return &optionMonitor[T]{cache: cache}
}
