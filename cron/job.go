package cron

import (
	"fmt"
	"reflect"

	"github.com/gocrud/feather/di"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// jobDefinition 任务定义
type jobDefinition struct {
	spec    string
	name    string
	handler any // func() 或参数从注入器解析的函数
}

// bindHandler 把处理函数包装为无参任务。
//
// 参数按类型（无限定符）在注册时解析为延迟句柄，因此缺失或循环的依赖在注册时就会报错，
// 而实例在每次执行时通过句柄获取：单例共享，transient 每次新建。
// 处理函数可以返回 error，返回的错误交给 onError。
func bindHandler(inj *di.Injector, handler any, onError func(error)) (func(), error) {
	if h, ok := handler.(func()); ok {
		return h, nil
	}

	fn := reflect.ValueOf(handler)
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("handler must be a function, got %T", handler)
	}
	ft := fn.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("handler must not be variadic")
	}
	switch {
	case ft.NumOut() == 0:
	case ft.NumOut() == 1 && ft.Out(0) == errorType:
	default:
		return nil, fmt.Errorf("handler must return nothing or error, got %v", ft)
	}

	if ft.NumIn() > 0 && inj == nil {
		return nil, fmt.Errorf("handler %v requires an injector", ft)
	}

	handles := make([]di.LazyHandle, ft.NumIn())
	for i := range handles {
		h, err := inj.Resolve(di.NewKey(ft.In(i), nil))
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		handles[i] = h
	}

	return func() {
		args := make([]reflect.Value, len(handles))
		for i, h := range handles {
			val, err := h.Get()
			if err != nil {
				onError(fmt.Errorf("resolve parameter %d (%s): %w", i, h.Key(), err))
				return
			}
			if val == nil {
				args[i] = reflect.Zero(ft.In(i))
			} else {
				args[i] = reflect.ValueOf(val)
			}
		}

		out := fn.Call(args)
		if len(out) == 1 && !out[0].IsNil() {
			onError(out[0].Interface().(error))
		}
	}, nil
}
