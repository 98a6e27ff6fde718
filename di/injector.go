package di

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gocrud/feather/logging"
	"go.opentelemetry.io/otel/trace"
)

// Injector 是依赖注入的绑定注册表：按 Key 构建、缓存并提供实例。
//
// 所有方法都可以被多个 goroutine 并发调用。
type Injector struct {
	logger logging.Logger
	tracer trace.Tracer

	// 构造完成后只读
	declarations map[Key]*declaration
	constructors map[reflect.Type][]*declaration

	mu       sync.RWMutex
	bindings map[Key]*binding

	cells  sync.Map   // Key -> *singletonCell
	fields sync.Map   // reflect.Type -> []injectField
	fillMu sync.Mutex // 保护 singletonCell.owner 与 frame.waiting

	disposeMu  sync.Mutex
	disposable []createdInstance // 按创建顺序

	closed atomic.Bool
}

type createdInstance struct {
	key Key
	val any
}

// New 用配置模块创建注入器。
//
// 模块可以是任意带有 Provide* 方法的实例，也可以是 di.Constructors 的返回值。
// 注入器自身以 *Injector 类型注册，可以被注入。
func New(modules ...any) (*Injector, error) {
	return NewWithOptions(Options{}, modules...)
}

// NewWithOptions 与 New 相同，并指定日志与追踪等环境设置。
func NewWithOptions(opts Options, modules ...any) (*Injector, error) {
	opts = opts.withDefaults()

	inj := &Injector{
		logger:       opts.Logger.WithCategory("di"),
		tracer:       opts.Tracer,
		declarations: make(map[Key]*declaration),
		constructors: make(map[reflect.Type][]*declaration),
		bindings:     make(map[Key]*binding),
	}

	self := &declaration{
		key:    KeyOf[*Injector](),
		scope:  ScopeTransient,
		source: "injector",
		invoke: func([]reflect.Value) (any, error) { return inj, nil },
	}
	inj.declarations[self.key] = self

	for _, module := range modules {
		if err := inj.install(module); err != nil {
			return nil, err
		}
	}

	inj.logger.Debug("injector created",
		logging.Field{Key: "modules", Value: len(modules)},
		logging.Field{Key: "providers", Value: len(inj.declarations)})
	return inj, nil
}

// Get 解析 key 并立即返回实例。
func (inj *Injector) Get(key Key) (any, error) {
	return inj.get(context.Background(), key)
}

// GetContext 与 Get 相同，ctx 作为追踪 span 的父上下文。
func (inj *Injector) GetContext(ctx context.Context, key Key) (any, error) {
	return inj.get(ctx, key)
}

func (inj *Injector) get(ctx context.Context, key Key) (any, error) {
	if inj.closed.Load() {
		return nil, ErrClosed
	}
	b, err := inj.bindingFor(key, nil)
	if err != nil {
		return nil, err
	}
	return inj.materialize(ctx, b)
}

// Resolve 返回 key 的延迟句柄。绑定会被创建并校验，但实例在调用 Get 时才构造。
func (inj *Injector) Resolve(key Key) (LazyHandle, error) {
	if inj.closed.Load() {
		return nil, ErrClosed
	}
	b, err := inj.bindingFor(key, nil)
	if err != nil {
		return nil, err
	}
	return &handle{inj: inj, b: b}, nil
}

// Dependencies 返回 key 的直接依赖（按参数位置顺序），延迟句柄参数不计入。
func (inj *Injector) Dependencies(key Key) ([]Key, error) {
	b, err := inj.bindingFor(key, nil)
	if err != nil {
		return nil, err
	}
	return directKeys(b.params), nil
}

// Bindings 返回已发布绑定的 Key 快照，按字符串排序。
func (inj *Injector) Bindings() []Key {
	inj.mu.RLock()
	keys := make([]Key, 0, len(inj.bindings))
	for k := range inj.bindings {
		keys = append(keys, k)
	}
	inj.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// track 记录需要在关闭时释放的单例。
// 注入器已经关闭时立即释放实例并返回 ErrClosed。
func (inj *Injector) track(key Key, val any) error {
	switch val.(type) {
	case Disposer, io.Closer:
	default:
		return nil
	}

	inj.disposeMu.Lock()
	if !inj.closed.Load() {
		inj.disposable = append(inj.disposable, createdInstance{key: key, val: val})
		inj.disposeMu.Unlock()
		return nil
	}
	inj.disposeMu.Unlock()

	if err := inj.dispose(context.Background(), createdInstance{key: key, val: val}); err != nil {
		return errors.Join(ErrClosed, err)
	}
	return ErrClosed
}

// dispose 释放一个实例，失败时记录日志
func (inj *Injector) dispose(ctx context.Context, c createdInstance) error {
	var err error
	switch v := c.val.(type) {
	case Disposer:
		err = v.Dispose(ctx)
	case io.Closer:
		err = v.Close()
	}
	if err != nil {
		inj.logger.Warn("dispose failed",
			logging.Field{Key: "key", Value: c.key.String()},
			logging.Field{Key: "error", Value: err.Error()})
		return fmt.Errorf("dispose %s: %w", c.key, err)
	}
	return nil
}

// Close 按创建的逆序释放已创建的单例（Disposer 或 io.Closer），并清空单例缓存。
// 关闭后所有解析都返回 ErrClosed，关闭期间才完成创建的单例会被立即释放。
// 重复调用返回 nil。
func (inj *Injector) Close(ctx context.Context) error {
	if !inj.closed.CompareAndSwap(false, true) {
		return nil
	}

	inj.disposeMu.Lock()
	created := inj.disposable
	inj.disposable = nil
	inj.disposeMu.Unlock()

	// 记录错误但不中断，继续释放其他实例
	var errs []error
	for i := len(created) - 1; i >= 0; i-- {
		if err := inj.dispose(ctx, created[i]); err != nil {
			errs = append(errs, err)
		}
	}

	inj.resetCells()
	return errors.Join(errs...)
}
