package di

import (
	"context"
	"fmt"
	"reflect"
)

// LazyHandle 是延迟获取某个 Key 实例的句柄，只在调用 Get 时才构造。
type LazyHandle interface {
	Key() Key
	Get() (any, error)
}

// Provider 是类型化的延迟句柄。
//
// 作为构造函数参数或注入字段时，解析被推迟到调用 Get 为止，
// 因此可以用来打破相互依赖的类型之间的循环。
type Provider[T any] struct {
	inj  *Injector
	key  Key
	from *frame // 创建句柄的实例化，用于发现重入
}

// ProviderOf 返回类型 T（可选限定符 q）的延迟句柄，不会立即构造实例。
func ProviderOf[T any](inj *Injector, q ...Qualifier) Provider[T] {
	key := KeyOf[T]()
	if len(q) > 0 {
		key.Qualifier = q[0]
	}
	return Provider[T]{inj: inj, key: key}
}

// Key 返回句柄对应的 Key
func (p Provider[T]) Key() Key {
	return p.key
}

// Get 解析并返回一个实例；单例作用域每次返回同一个实例。
func (p Provider[T]) Get() (T, error) {
	var zero T
	if p.inj == nil {
		return zero, fmt.Errorf("di: provider of %v is not bound to an injector", TypeOf[T]())
	}
	ctx := context.Background()
	if p.from != nil {
		ctx = withFrame(ctx, p.from)
	}
	val, err := p.inj.get(ctx, p.key)
	if err != nil {
		return zero, err
	}
	return cast[T](val, p.key)
}

// MustGet 与 Get 相同，失败时 panic
func (p Provider[T]) MustGet() T {
	v, err := p.Get()
	if err != nil {
		panic(err)
	}
	return v
}

func (Provider[T]) lazyElem() reflect.Type {
	return TypeOf[T]()
}

func (p *Provider[T]) bindLazy(inj *Injector, key Key, from *frame) {
	p.inj = inj
	p.key = key
	p.from = from
}

// lazyHandle 用于在签名检查时识别 Provider[T] 参数
type lazyHandle interface {
	lazyElem() reflect.Type
}

type lazyBinder interface {
	bindLazy(inj *Injector, key Key, from *frame)
}

// newLazyValue 通过反射构造类型为 typ（某个 Provider[T]）的句柄，from 为所在的实例化
func newLazyValue(typ reflect.Type, inj *Injector, key Key, from *frame) reflect.Value {
	v := reflect.New(typ)
	v.Interface().(lazyBinder).bindLazy(inj, key, from)
	return v.Elem()
}

// handle 是 Injector.Resolve 返回的非类型化句柄
type handle struct {
	inj *Injector
	b   *binding
}

func (h *handle) Key() Key {
	return h.b.key
}

func (h *handle) Get() (any, error) {
	return h.inj.materialize(context.Background(), h.b)
}

// cast 将解析结果转换为 T；nil 接口/指针得到零值
func cast[T any](val any, key Key) (T, error) {
	var zero T
	if val == nil {
		return zero, nil
	}
	if v, ok := val.(T); ok {
		return v, nil
	}
	return zero, fmt.Errorf("di: resolved value for %s is %T, expected %v", key, val, TypeOf[T]())
}
