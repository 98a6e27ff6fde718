package di

import (
	"fmt"
	"reflect"
)

// paramKind 参数的解析方式
type paramKind int

const (
	paramDirect paramKind = iota // 直接依赖，参与循环检测
	paramLazy                    // Provider[T]，延迟解析
	paramTagged                  // Tagged[T, M]，包装内层参数
	paramObject                  // 嵌入 In 的参数对象
)

// param 是构造函数/提供方法的一个参数（或注入字段）的预计算元数据
type param struct {
	typ    reflect.Type // 声明的类型
	kind   paramKind
	key    Key           // paramDirect 与 paramLazy
	inner  *param        // paramTagged
	fields []objectField // paramObject
	dep    *binding      // paramDirect，链接后填充
}

type objectField struct {
	index int
	name  string
	param *param
}

// analyzeParam 按静态签名判断参数类型，q 是声明处给出的限定符
func analyzeParam(t reflect.Type, q Qualifier) (*param, error) {
	switch {
	case t.Kind() == reflect.Struct && t.Implements(taggedType):
		innerType, mq := reflect.Zero(t).Interface().(tagged).taggedInner()
		inner, err := analyzeParam(innerType, mq)
		if err != nil {
			return nil, err
		}
		return &param{typ: t, kind: paramTagged, inner: inner}, nil

	case t.Kind() == reflect.Struct && t.Implements(lazyType):
		elem := reflect.Zero(t).Interface().(lazyHandle).lazyElem()
		return &param{typ: t, kind: paramLazy, key: NewKey(elem, q)}, nil

	case isInStruct(t):
		p := &param{typ: t, kind: paramObject}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Anonymous && f.Type == inType {
				continue
			}
			if !f.IsExported() {
				return nil, fmt.Errorf("parameter object %v has unexported field %s", t, f.Name)
			}
			var fq Qualifier
			if name := f.Tag.Get("inject"); name != "" {
				fq = Named(name)
			}
			fp, err := analyzeParam(f.Type, fq)
			if err != nil {
				return nil, err
			}
			p.fields = append(p.fields, objectField{index: i, name: f.Name, param: fp})
		}
		return p, nil
	}

	return &param{typ: t, kind: paramDirect, key: NewKey(t, q)}, nil
}

// analyzeFunc 分析函数的参数列表
func analyzeFunc(fnType reflect.Type) ([]*param, error) {
	params := make([]*param, 0, fnType.NumIn())
	for i := 0; i < fnType.NumIn(); i++ {
		p, err := analyzeParam(fnType.In(i), nil)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		params = append(params, p)
	}
	return params, nil
}

// directKeys 按位置顺序列出参数中所有直接依赖（用于诊断）
func directKeys(params []*param) []Key {
	var keys []Key
	var walk func(p *param)
	walk = func(p *param) {
		switch p.kind {
		case paramDirect:
			keys = append(keys, p.key)
		case paramTagged:
			walk(p.inner)
		case paramObject:
			for _, f := range p.fields {
				walk(f.param)
			}
		}
	}
	for _, p := range params {
		walk(p)
	}
	return keys
}
