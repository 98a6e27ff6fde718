package di

import (
	"context"
	"errors"
	"reflect"
	"unsafe"
)

// injectField 包含需要注入的结构体字段的元数据。
type injectField struct {
	index []int        // 经过嵌入结构体的索引路径
	name  string       // 字段名
	owner reflect.Type // 声明该字段的结构体
	param *param
}

// InjectFields 为外部创建的对象注入标记了 inject 标签的字段，包括嵌入结构体中的字段。
//
//	type Target struct {
//		Foo   *Foo              `inject:""`
//		Hello string            `inject:"hello"`
//		Lazy  di.Provider[*Bar] `inject:""`
//	}
//
// 未导出字段同样会被赋值。字段列表按具体类型计算一次并缓存。
// 图中构造的对象不会自动进行字段注入。
func (inj *Injector) InjectFields(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return &FieldInjectionError{
			Type:  reflect.TypeOf(target),
			Cause: errors.New("target must be a non-nil pointer to struct"),
		}
	}
	if inj.closed.Load() {
		return ErrClosed
	}

	elem := v.Elem()
	fields, err := inj.fieldsOf(elem.Type())
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, f := range fields {
		fv := elem.FieldByIndex(f.index)
		if !fv.CanSet() {
			fv = reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
		}

		val, err := inj.paramValue(ctx, f.param)
		if err != nil {
			return &FieldInjectionError{Field: f.name, Type: f.owner, Cause: err}
		}
		if !val.Type().AssignableTo(fv.Type()) {
			return &FieldInjectionError{Field: f.name, Type: f.owner,
				Cause: errors.New("resolved " + val.Type().String() + " is not assignable to " + fv.Type().String())}
		}
		fv.Set(val)
	}
	return nil
}

// fieldsOf 返回类型的注入字段列表（带缓存）
func (inj *Injector) fieldsOf(t reflect.Type) ([]injectField, error) {
	if cached, ok := inj.fields.Load(t); ok {
		return cached.([]injectField), nil
	}

	var fields []injectField
	if err := collectFields(t, nil, &fields); err != nil {
		return nil, err
	}

	actual, _ := inj.fields.LoadOrStore(t, fields)
	return actual.([]injectField), nil
}

// collectFields 遍历结构体及其嵌入的结构体，收集带 inject 标签的字段
func collectFields(t reflect.Type, prefix []int, out *[]injectField) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := make([]int, len(prefix)+1)
		copy(index, prefix)
		index[len(prefix)] = i

		if name, ok := f.Tag.Lookup("inject"); ok {
			var q Qualifier
			if name != "" {
				q = Named(name)
			}
			p, err := analyzeParam(f.Type, q)
			if err != nil {
				return &FieldInjectionError{Field: f.Name, Type: t, Cause: err}
			}
			*out = append(*out, injectField{index: index, name: f.Name, owner: t, param: p})
			continue
		}

		// 只展开按值嵌入的结构体
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			if err := collectFields(f.Type, index, out); err != nil {
				return err
			}
		}
	}
	return nil
}
