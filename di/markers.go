package di

import (
	"context"
	"reflect"
)

// Singleton 是单例标记，嵌入到结构体中即声明该类型为单例作用域：
//
//	type Cache struct {
//		di.Singleton
//		...
//	}
//
// 对 Cache 与 *Cache 都生效。
type Singleton struct{}

func (Singleton) isSingleton() {}

type singletonMarker interface{ isSingleton() }

// In 是参数对象标记。构造函数或提供方法的参数如果是嵌入 In 的结构体，
// 其导出字段按声明顺序逐个解析，字段标签 inject:"name" 指定名称限定符：
//
//	type Params struct {
//		di.In
//		Hello string `inject:"hello"`
//		Bye   string `inject:"bye"`
//		Lazy  di.Provider[*Service]
//	}
type In struct{}

// Initializer 由需要构造后初始化的类型实现。
// Init 在构造完成后、返回给任何调用者之前同步调用一次。
type Initializer interface {
	Init() error
}

// Disposer 由需要在注入器关闭时释放资源的单例实现。
// 只实现 io.Closer 的单例同样会被关闭。
type Disposer interface {
	Dispose(ctx context.Context) error
}

// Tagged 用标记限定符 M 包装依赖 T，可直接用作构造函数参数或注入字段：
//
//	func NewService(store di.Tagged[Store, Primary]) *Service
//
// T 也可以是 Provider[X]，此时得到的是限定的延迟句柄。
type Tagged[T any, M any] struct {
	Value T
}

func (Tagged[T, M]) taggedInner() (reflect.Type, Qualifier) {
	return TypeOf[T](), Marker[M]()
}

type tagged interface {
	taggedInner() (reflect.Type, Qualifier)
}

var (
	singletonMarkerType = TypeOf[singletonMarker]()
	taggedType          = TypeOf[tagged]()
	lazyType            = TypeOf[lazyHandle]()
	inType              = TypeOf[In]()
	errorType           = TypeOf[error]()
)

// isSingletonType 判断类型是否嵌入了 Singleton 标记
func isSingletonType(t reflect.Type) bool {
	if t.Kind() == reflect.Interface {
		return false
	}
	return t.Implements(singletonMarkerType)
}

// isInStruct 判断类型是否为参数对象（嵌入 In 的结构体）
func isInStruct(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == inType {
			return true
		}
	}
	return false
}
