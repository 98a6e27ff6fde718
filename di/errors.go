package di

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrClosed 在注入器关闭后继续解析时返回
var ErrClosed = errors.New("di: injector is closed")

// InvalidModuleError 模块不是可用的实例（nil、reflect.Type 或不合法的提供方法）
type InvalidModuleError struct {
	Module any
	Reason string
}

func (e *InvalidModuleError) Error() string {
	if t, ok := e.Module.(reflect.Type); ok {
		return fmt.Sprintf("di: %v provided as type instead of an instance", t)
	}
	return fmt.Sprintf("di: invalid module %T: %s", e.Module, e.Reason)
}

// DuplicateBindingError 两个不同的提供方法生成了同一个 Key
type DuplicateBindingError struct {
	Key    Key
	First  string // 先注册的来源，形如 "*app.Module.ProvideFoo"
	Second string
}

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("di: %s has multiple providers: %s and %s", e.Key, e.First, e.Second)
}

// AmbiguousConstructorError 一个类型登记了多个注入构造函数
type AmbiguousConstructorError struct {
	Type         reflect.Type
	Constructors []string
}

func (e *AmbiguousConstructorError) Error() string {
	return fmt.Sprintf("di: %v has multiple injection constructors: %s", e.Type, strings.Join(e.Constructors, ", "))
}

// NoUsableConstructorError 类型既没有注入构造函数，也不能零值构造，也没有模块绑定
type NoUsableConstructorError struct {
	Key Key
}

func (e *NoUsableConstructorError) Error() string {
	return fmt.Sprintf("di: %s doesn't have an injection constructor, a zero-value constructor, or a module provider", e.Key)
}

// CircularDependencyError 直接依赖链重复访问了正在解析的 Key
type CircularDependencyError struct {
	Chain []Key // K1 -> K2 -> ... -> Pi，最后一个元素是重复的 Key
}

func (e *CircularDependencyError) Error() string {
	parts := make([]string, len(e.Chain))
	for i, k := range e.Chain {
		parts[i] = k.String()
	}
	return "di: circular dependency: " + strings.Join(parts, " -> ")
}

// InstantiationError 构造函数、工厂方法或 Init 钩子失败
type InstantiationError struct {
	Key   Key
	Cause error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("di: can't instantiate %s: %v", e.Key, e.Cause)
}

func (e *InstantiationError) Unwrap() error {
	return e.Cause
}

// FieldInjectionError 标记的字段无法被赋值
type FieldInjectionError struct {
	Field string
	Type  reflect.Type // 字段的声明类型（所在结构体）
	Cause error
}

func (e *FieldInjectionError) Error() string {
	return fmt.Sprintf("di: can't inject field %s in %v: %v", e.Field, e.Type, e.Cause)
}

func (e *FieldInjectionError) Unwrap() error {
	return e.Cause
}
