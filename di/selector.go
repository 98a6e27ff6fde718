package di

import (
	"fmt"
	"reflect"
)

// ConstructorSet 是登记注入构造函数的模块值，由 Constructors 创建。
type ConstructorSet struct {
	fns []any
}

// Constructors 登记注入构造函数。每个构造函数是其第一个返回值类型的注入构造函数：
//
//	inj, err := di.New(di.Constructors(NewService, NewRepository), &AppModule{})
//
// 同一类型登记多个构造函数时，请求该类型会得到 AmbiguousConstructorError。
func Constructors(fns ...any) *ConstructorSet {
	return &ConstructorSet{fns: fns}
}

// installConstructors 分析并登记构造函数
func (inj *Injector) installConstructors(set *ConstructorSet) error {
	for _, fn := range set.fns {
		if fn == nil {
			return &InvalidModuleError{Module: set, Reason: "nil constructor"}
		}
		fnVal := reflect.ValueOf(fn)
		out, err := checkFuncSignature(fnVal.Type())
		if err != nil {
			return &InvalidModuleError{Module: set, Reason: err.Error()}
		}
		params, err := analyzeFunc(fnVal.Type())
		if err != nil {
			return &InvalidModuleError{Module: set, Reason: fmt.Sprintf("constructor %v: %v", fnVal.Type(), err)}
		}

		inj.constructors[out] = append(inj.constructors[out], &declaration{
			key:      NewKey(out, nil),
			scope:    scopeOf(providerSpec{}, out),
			source:   funcName(fnVal),
			params:   params,
			invoke:   newFuncInvoker(fnVal),
			initHook: true,
		})
	}
	return nil
}

// selectConstructor 为没有模块绑定的 Key 选择构造方式：
// 唯一的注入构造函数，否则结构体零值构造。限定符不参与选择。
func (inj *Injector) selectConstructor(key Key) (*declaration, error) {
	ctors := inj.constructors[key.Type]
	if len(ctors) > 1 {
		names := make([]string, len(ctors))
		for i, c := range ctors {
			names[i] = c.source
		}
		return nil, &AmbiguousConstructorError{Type: key.Type, Constructors: names}
	}

	if len(ctors) == 1 {
		c := *ctors[0]
		c.key = key
		return &c, nil
	}

	if zeroConstructible(key.Type) {
		return &declaration{
			key:      key,
			scope:    scopeOf(providerSpec{}, key.Type),
			source:   "zero value",
			invoke:   newZeroInvoker(key.Type),
			initHook: true,
		}, nil
	}

	return nil, &NoUsableConstructorError{Key: key}
}

// zeroConstructible 结构体与结构体指针可以零值构造
func zeroConstructible(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
