package di

import (
	"github.com/gocrud/feather/logging"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Option 配置模块提供方法生成的绑定。
type Option func(*providerSpec)

// providerSpec 是提供方法上的声明信息（限定符与作用域）
type providerSpec struct {
	qualifier Qualifier
	scope     ScopeType
}

// WithScope 设置绑定的生命周期范围。
// 返回类型嵌入了 Singleton 时总是单例，ScopeTransient 不会降级它。
func WithScope(scope ScopeType) Option {
	return func(s *providerSpec) {
		s.scope = scope
	}
}

// WithSingleton 将范围设置为 Singleton。
func WithSingleton() Option {
	return WithScope(ScopeSingleton)
}

// WithTransient 将范围设置为 Transient（默认）。
func WithTransient() Option {
	return WithScope(ScopeTransient)
}

// WithName 设置名称限定符，用于命名注入。
func WithName(name string) Option {
	return WithQualifier(Named(name))
}

// WithQualifier 设置任意限定符。
func WithQualifier(q Qualifier) Option {
	return func(s *providerSpec) {
		s.qualifier = q
	}
}

// WithToken 使用 Token 的名称作为限定符。
func WithToken[T any](t *Token[T]) Option {
	return WithName(t.Name())
}

// Annotations 按提供方法名称登记的选项。
type Annotations map[string][]Option

// Annotated 由需要为提供方法附加限定符或作用域的模块实现。
//
// 嵌入父模块的子模块会继承父模块的 Annotate；需要调整时在子模块上重新实现即可。
type Annotated interface {
	Annotate() Annotations
}

// Options 注入器的环境设置。
type Options struct {
	// Logger 为空时不输出日志
	Logger logging.Logger
	// Tracer 为空时使用 noop tracer
	Tracer trace.Tracer
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logging.NewNopLogger()
	}
	if o.Tracer == nil {
		o.Tracer = noop.NewTracerProvider().Tracer("github.com/gocrud/feather/di")
	}
	return o
}
