package di

import (
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strings"

	"github.com/gocrud/feather/logging"
)

// providerPrefix 提供方法的名称前缀
const providerPrefix = "Provide"

// install 登记一个模块实例的全部提供方法。
//
// 模块的方法集里名称以 Provide 开头的导出方法都是提供方法，返回 (T) 或 (T, error)。
// 嵌入的父模块方法会被子模块的同名方法遮蔽，只有子模块的实现被登记。
func (inj *Injector) install(module any) error {
	switch m := module.(type) {
	case nil:
		return &InvalidModuleError{Module: module, Reason: "nil module"}
	case reflect.Type:
		return &InvalidModuleError{Module: m}
	case *ConstructorSet:
		return inj.installConstructors(m)
	}

	v := reflect.ValueOf(module)
	if v.Kind() == reflect.Ptr && v.IsNil() {
		return &InvalidModuleError{Module: module, Reason: "nil module pointer"}
	}
	if v.Kind() == reflect.Func {
		return &InvalidModuleError{Module: module, Reason: "functions are not modules, use di.Constructors"}
	}

	t := v.Type()
	if t.Kind() != reflect.Ptr {
		if name, ok := pointerOnlyProvider(t); ok {
			return &InvalidModuleError{Module: module, Reason: fmt.Sprintf(
				"provider method %s has a pointer receiver, pass a pointer to the module", name)}
		}
	}

	var annotations Annotations
	if a, ok := module.(Annotated); ok {
		annotations = a.Annotate()
	}

	seen := make(map[string]bool)
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !isProviderMethod(m.Name) {
			continue
		}
		seen[m.Name] = true

		decl, err := newMethodDeclaration(t, m.Name, v.Method(i), annotations[m.Name])
		if err != nil {
			return &InvalidModuleError{Module: module, Reason: err.Error()}
		}

		if existing, ok := inj.declarations[decl.key]; ok {
			return &DuplicateBindingError{Key: decl.key, First: existing.source, Second: decl.source}
		}
		inj.declarations[decl.key] = decl

		inj.logger.Debug("provider method registered",
			logging.Field{Key: "key", Value: decl.key.String()},
			logging.Field{Key: "source", Value: decl.source})
	}

	// 注解必须对应存在的提供方法
	names := make([]string, 0, len(annotations))
	for name := range annotations {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !seen[name] {
			return &InvalidModuleError{Module: module, Reason: fmt.Sprintf("annotation for unknown provider method %s", name)}
		}
	}
	return nil
}

// isProviderMethod 判断方法名是否为提供方法
func isProviderMethod(name string) bool {
	return strings.HasPrefix(name, providerPrefix) && len(name) > len(providerPrefix)
}

// pointerOnlyProvider 返回只在 *t 方法集中的第一个提供方法
func pointerOnlyProvider(t reflect.Type) (string, bool) {
	pt := reflect.PointerTo(t)
	for i := 0; i < pt.NumMethod(); i++ {
		name := pt.Method(i).Name
		if !isProviderMethod(name) {
			continue
		}
		if _, ok := t.MethodByName(name); !ok {
			return name, true
		}
	}
	return "", false
}

// newMethodDeclaration 分析一个绑定到模块实例的提供方法
func newMethodDeclaration(moduleType reflect.Type, name string, method reflect.Value, opts []Option) (*declaration, error) {
	out, err := checkFuncSignature(method.Type())
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", name, err)
	}
	params, err := analyzeFunc(method.Type())
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", name, err)
	}

	var spec providerSpec
	for _, opt := range opts {
		opt(&spec)
	}

	return &declaration{
		key:    NewKey(out, spec.qualifier),
		scope:  scopeOf(spec, out),
		source: fmt.Sprintf("%v.%s", moduleType, name),
		params: params,
		invoke: newFuncInvoker(method),
	}, nil
}

// funcName 返回函数的完整名称，用于诊断
func funcName(fn reflect.Value) string {
	if f := runtime.FuncForPC(fn.Pointer()); f != nil {
		return f.Name()
	}
	return fn.Type().String()
}
