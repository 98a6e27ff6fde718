package di

import (
	"fmt"
	"reflect"
)

// Qualifier 区分同一类型的多个绑定。
//
// 只有 Named 和 Marker 两种实现，二者都是可比较的值，可以直接作为 map 键的一部分。
type Qualifier interface {
	fmt.Stringer
	isQualifier()
}

// named 是按名称区分的限定符
type named string

func (n named) String() string { return fmt.Sprintf("named(%q)", string(n)) }
func (named) isQualifier() {}

// Named 创建名称限定符。
//
//	di.QualifiedKeyOf[string](di.Named("greeting"))
func Named(name string) Qualifier {
	return named(name)
}

// marker 是按标记类型区分的限定符，M 本身即身份
type marker[M any] struct{}

func (marker[M]) String() string { return "@" + TypeOf[M]().String() }
func (marker[M]) isQualifier() {}

// Marker 创建以类型 M 为身份的标记限定符。
//
// 标记类型通常是空结构体：
//
//	type Primary struct{}
//	key := di.QualifiedKeyOf[Store](di.Marker[Primary]())
func Marker[M any]() Qualifier {
	return marker[M]{}
}

// Key 是依赖的身份：类型加可选的限定符。
//
// 两个 Key 当且仅当类型和限定符都相等时相等；nil 限定符与任何限定符都不相等。
type Key struct {
	Type      reflect.Type
	Qualifier Qualifier
}

// NewKey 创建指定类型和限定符的 Key，q 可以为 nil。
func NewKey(typ reflect.Type, q Qualifier) Key {
	return Key{Type: typ, Qualifier: q}
}

// KeyOf 返回类型 T 的无限定符 Key。
func KeyOf[T any]() Key {
	return Key{Type: TypeOf[T]()}
}

// QualifiedKeyOf 返回类型 T 加限定符 q 的 Key。
func QualifiedKeyOf[T any](q Qualifier) Key {
	return Key{Type: TypeOf[T](), Qualifier: q}
}

// String 返回 Key 的字符串表示
func (k Key) String() string {
	if k.Qualifier == nil {
		return fmt.Sprintf("%v", k.Type)
	}
	return fmt.Sprintf("%v[%s]", k.Type, k.Qualifier)
}

// TypeOf 获取类型 T 的 reflect.Type（泛型辅助函数），接口类型也适用。
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
