package di

import (
	"fmt"
)

// Token 表示一个带类型的命名依赖，用于区分相同类型的不同依赖
//
// 使用场景：
//   - 需要注册多个相同类型但用途不同的实例（如多个数据库连接）
//   - 配置值（如字符串、整数等基本类型）
//
// 示例：
//
//	var Greeting = di.NewToken[string]("greeting")
//
//	type Module struct{}
//	func (Module) ProvideGreeting() string { return "hi" }
//	func (Module) Annotate() di.Annotations {
//		return di.Annotations{"ProvideGreeting": {di.WithToken(Greeting)}}
//	}
//
//	greet, _ := di.GetToken(injector, Greeting)
type Token[T any] struct {
	name string
}

// NewToken 创建一个新的 Token
//
// 参数 name 用于标识此 Token，同名同类型的 Token 指向同一个绑定。
func NewToken[T any](name string) *Token[T] {
	return &Token[T]{name: name}
}

// Name 返回 Token 的名称
func (t *Token[T]) Name() string {
	return t.name
}

// Key 返回 Token 对应的 Key（类型 T + Named 限定符）
func (t *Token[T]) Key() Key {
	return QualifiedKeyOf[T](Named(t.name))
}

// String 返回 Token 的字符串表示
func (t *Token[T]) String() string {
	return fmt.Sprintf("Token[%s](%s)", TypeOf[T](), t.name)
}
