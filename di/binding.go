package di

import (
	"fmt"
	"reflect"
)

// ScopeType 定义了绑定的生命周期。
type ScopeType int

const (
	// ScopeTransient 每次请求创建一个新实例（默认）。
	ScopeTransient ScopeType = iota
	// ScopeSingleton 每个注入器只创建一个实例。
	ScopeSingleton
)

// String 返回作用域的字符串表示
func (s ScopeType) String() string {
	switch s {
	case ScopeTransient:
		return "transient"
	case ScopeSingleton:
		return "singleton"
	default:
		return fmt.Sprintf("ScopeType(%d)", int(s))
	}
}

// invoker 用解析好的参数创建实例
type invoker func(args []reflect.Value) (any, error)

// declaration 是一个尚未链接依赖的提供者：模块提供方法或登记的构造函数。
// 注入器构造完成后只读。
type declaration struct {
	key      Key
	scope    ScopeType
	source   string
	params   []*param
	invoke   invoker
	initHook bool // 构造函数与零值构造后执行 Init，提供方法不执行
}

// binding 是链接完成的提供者，每个 Key 只发布一个。
type binding struct {
	key      Key
	scope    ScopeType
	source   string
	params   []*param // 直接依赖已经链接到对应的 binding
	invoke   invoker
	initHook bool
	cell     *singletonCell // 仅单例作用域
}

// newFuncInvoker 包装构造函数或提供方法的反射调用。
// 支持 (T) 与 (T, error) 两种返回形式，返回 nil 指针/接口视为失败。
func newFuncInvoker(fn reflect.Value) invoker {
	return func(args []reflect.Value) (val any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()

		results := fn.Call(args)

		// 检查 error
		if len(results) == 2 && !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}

		// 检查 nil
		first := results[0]
		if first.Kind() == reflect.Ptr || first.Kind() == reflect.Interface {
			if first.IsNil() {
				return nil, fmt.Errorf("provider returned nil instance")
			}
		}

		return first.Interface(), nil
	}
}

// newZeroInvoker 为结构体或结构体指针类型创建零值构造器
func newZeroInvoker(typ reflect.Type) invoker {
	if typ.Kind() == reflect.Ptr {
		elem := typ.Elem()
		return func([]reflect.Value) (any, error) {
			return reflect.New(elem).Interface(), nil
		}
	}
	return func([]reflect.Value) (any, error) {
		return reflect.New(typ).Elem().Interface(), nil
	}
}

// checkFuncSignature 校验提供函数的返回值形式，返回所提供的类型
func checkFuncSignature(fnType reflect.Type) (reflect.Type, error) {
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("expected a function, got %v", fnType)
	}
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("variadic provider %v is not supported", fnType)
	}
	switch fnType.NumOut() {
	case 1:
	case 2:
		if fnType.Out(1) != errorType {
			return nil, fmt.Errorf("second return value of %v must be error", fnType)
		}
	default:
		return nil, fmt.Errorf("provider %v must return (T) or (T, error)", fnType)
	}
	return fnType.Out(0), nil
}

// scopeOf 计算作用域：提供方法声明为单例，或类型嵌入了 Singleton 标记，都是单例
func scopeOf(spec providerSpec, typ reflect.Type) ScopeType {
	if isSingletonType(typ) || spec.scope == ScopeSingleton {
		return ScopeSingleton
	}
	return ScopeTransient
}
