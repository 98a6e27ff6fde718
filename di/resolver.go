package di

import (
	"context"
	"fmt"
	"reflect"

	"github.com/gocrud/feather/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// bindingFor 返回 key 的绑定，不存在时创建。chain 是当前调用路径上正在解析的 Key。
func (inj *Injector) bindingFor(key Key, chain []Key) (*binding, error) {
	inj.mu.RLock()
	b, ok := inj.bindings[key]
	inj.mu.RUnlock()
	if ok {
		return b, nil
	}

	var decl *declaration
	if d, ok := inj.declarations[key]; ok {
		decl = d
	} else {
		d, err := inj.selectConstructor(key)
		if err != nil {
			return nil, err
		}
		decl = d
	}

	b, err := inj.link(decl, chain)
	if err != nil {
		return nil, err
	}
	return inj.publish(b), nil
}

// link 为声明解析所有直接依赖并生成 binding。
// 依赖全部链接成功之前不会发布任何东西。
func (inj *Injector) link(decl *declaration, chain []Key) (*binding, error) {
	next := make([]Key, len(chain), len(chain)+1)
	copy(next, chain)
	next = append(next, decl.key)

	params := make([]*param, len(decl.params))
	for i, p := range decl.params {
		linked, err := inj.linkParam(p, next)
		if err != nil {
			return nil, err
		}
		params[i] = linked
	}

	b := &binding{
		key:      decl.key,
		scope:    decl.scope,
		source:   decl.source,
		params:   params,
		invoke:   decl.invoke,
		initHook: decl.initHook,
	}
	if b.scope == ScopeSingleton {
		b.cell = inj.cellFor(b.key)
	}
	return b, nil
}

// linkParam 复制参数树并为直接依赖填充 binding；延迟句柄不做检查
func (inj *Injector) linkParam(p *param, chain []Key) (*param, error) {
	out := *p
	switch p.kind {
	case paramDirect:
		for _, k := range chain {
			if k == p.key {
				cycle := make([]Key, len(chain), len(chain)+1)
				copy(cycle, chain)
				return nil, &CircularDependencyError{Chain: append(cycle, p.key)}
			}
		}
		dep, err := inj.bindingFor(p.key, chain)
		if err != nil {
			return nil, err
		}
		out.dep = dep

	case paramTagged:
		inner, err := inj.linkParam(p.inner, chain)
		if err != nil {
			return nil, err
		}
		out.inner = inner

	case paramObject:
		out.fields = make([]objectField, len(p.fields))
		for i, f := range p.fields {
			fp, err := inj.linkParam(f.param, chain)
			if err != nil {
				return nil, err
			}
			out.fields[i] = objectField{index: f.index, name: f.name, param: fp}
		}
	}
	return &out, nil
}

// publish 发布 binding；并发创建同一个 Key 时先发布者胜出
func (inj *Injector) publish(b *binding) *binding {
	inj.mu.Lock()
	defer inj.mu.Unlock()

	if existing, ok := inj.bindings[b.key]; ok {
		return existing
	}
	inj.bindings[b.key] = b

	inj.logger.Debug("binding registered",
		logging.Field{Key: "key", Value: b.key.String()},
		logging.Field{Key: "scope", Value: b.scope.String()},
		logging.Field{Key: "source", Value: b.source})
	return b
}

func (inj *Injector) cellFor(key Key) *singletonCell {
	cell, _ := inj.cells.LoadOrStore(key, &singletonCell{})
	return cell.(*singletonCell)
}

// materialize 通过 binding 取得实例；单例经由共享的 cell
func (inj *Injector) materialize(ctx context.Context, b *binding) (any, error) {
	if inj.closed.Load() {
		return nil, ErrClosed
	}
	if b.cell == nil {
		return inj.instantiate(ctx, b, &frame{key: b.key, parent: frameFrom(ctx)})
	}

	val, created, err := inj.fill(ctx, b)
	if err != nil {
		return nil, err
	}
	if created {
		if err := inj.track(b.key, val); err != nil {
			return nil, err
		}
	}
	return val, nil
}

// instantiate 按位置顺序解析参数，调用构造函数，再执行 Init 钩子。
// f 记录这次实例化在调用路径上的位置，参数与延迟句柄都在它之下解析。
func (inj *Injector) instantiate(ctx context.Context, b *binding, f *frame) (val any, err error) {
	defer f.finished.Store(true)
	ctx = withFrame(ctx, f)

	ctx, span := inj.tracer.Start(ctx, "di.materialize", trace.WithAttributes(
		attribute.String("di.key", b.key.String()),
		attribute.String("di.scope", b.scope.String()),
		attribute.String("di.source", b.source),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	args := make([]reflect.Value, len(b.params))
	for i, p := range b.params {
		arg, err := inj.paramValue(ctx, p)
		if err != nil {
			return nil, &InstantiationError{Key: b.key, Cause: fmt.Errorf("parameter %d: %w", i, err)}
		}
		args[i] = arg
	}

	val, err = b.invoke(args)
	if err != nil {
		return nil, &InstantiationError{Key: b.key, Cause: err}
	}

	// 提供方法可能返回别处已经构造好的对象，Init 只随构造函数执行
	if b.initHook {
		if init, ok := val.(Initializer); ok {
			if err := init.Init(); err != nil {
				return nil, &InstantiationError{Key: b.key, Cause: fmt.Errorf("init: %w", err)}
			}
		}
	}

	if b.scope == ScopeSingleton {
		inj.logger.Debug("singleton materialized", logging.Field{Key: "key", Value: b.key.String()})
	}
	return val, nil
}

// paramValue 生成一个参数的实际值
func (inj *Injector) paramValue(ctx context.Context, p *param) (reflect.Value, error) {
	switch p.kind {
	case paramLazy:
		return newLazyValue(p.typ, inj, p.key, frameFrom(ctx)), nil

	case paramTagged:
		inner, err := inj.paramValue(ctx, p.inner)
		if err != nil {
			return reflect.Value{}, err
		}
		v := reflect.New(p.typ).Elem()
		v.Field(0).Set(inner)
		return v, nil

	case paramObject:
		v := reflect.New(p.typ).Elem()
		for _, f := range p.fields {
			fv, err := inj.paramValue(ctx, f.param)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("field %s: %w", f.name, err)
			}
			v.Field(f.index).Set(fv)
		}
		return v, nil
	}

	// 字段注入时 dep 尚未链接，按普通请求查找
	dep := p.dep
	if dep == nil {
		b, err := inj.bindingFor(p.key, nil)
		if err != nil {
			return reflect.Value{}, err
		}
		dep = b
	}

	val, err := inj.materialize(ctx, dep)
	if err != nil {
		return reflect.Value{}, err
	}
	return valueOf(val, p.typ)
}

// valueOf 将解析结果转换为可赋值给 typ 的 reflect.Value
func valueOf(val any, typ reflect.Type) (reflect.Value, error) {
	if val == nil {
		return reflect.Zero(typ), nil
	}
	rv := reflect.ValueOf(val)
	if !rv.Type().AssignableTo(typ) {
		return reflect.Value{}, fmt.Errorf("resolved %v is not assignable to %v", rv.Type(), typ)
	}
	return rv, nil
}
