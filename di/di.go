package di

import (
	"context"
)

// Get 解析类型 T 的实例，可选一个限定符。
//
//	svc, err := di.Get[*UserService](injector)
//	primary, err := di.Get[Store](injector, di.Marker[Primary]())
func Get[T any](inj *Injector, q ...Qualifier) (T, error) {
	key := KeyOf[T]()
	if len(q) > 0 {
		key.Qualifier = q[0]
	}
	return GetKey[T](inj, key)
}

// GetNamed 解析带名称限定符的 T。
func GetNamed[T any](inj *Injector, name string) (T, error) {
	return GetKey[T](inj, QualifiedKeyOf[T](Named(name)))
}

// GetQualified 解析带标记限定符 M 的 T。
func GetQualified[T any, M any](inj *Injector) (T, error) {
	return GetKey[T](inj, QualifiedKeyOf[T](Marker[M]()))
}

// GetToken 解析 Token 对应的依赖。
func GetToken[T any](inj *Injector, token *Token[T]) (T, error) {
	return GetKey[T](inj, token.Key())
}

// GetKey 按 Key 解析并转换为 T。key 的类型必须能赋值给 T。
func GetKey[T any](inj *Injector, key Key) (T, error) {
	val, err := inj.get(context.Background(), key)
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](val, key)
}

// MustGet 与 Get 相同，失败时 panic
func MustGet[T any](inj *Injector, q ...Qualifier) T {
	v, err := Get[T](inj, q...)
	if err != nil {
		panic(err)
	}
	return v
}
