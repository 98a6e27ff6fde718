// Package di 是基于反射的轻量依赖注入。
//
// 依赖用 Key 标识：类型加可选的限定符（Named 或 Marker）。
// 注入器从两种来源得到提供者：
//
//   - 模块：任意结构体实例，方法集中以 Provide 开头的导出方法都是提供方法。
//     嵌入父模块时，子模块的同名方法覆盖父模块的方法。
//   - 构造函数：di.Constructors(NewFoo) 登记 *Foo 的注入构造函数。
//     没有登记构造函数的结构体或结构体指针按零值构造。
//
// 基本用法：
//
//	type AppModule struct{}
//
//	func (AppModule) ProvideGreeting() string { return "hello" }
//	func (AppModule) Annotate() di.Annotations {
//		return di.Annotations{"ProvideGreeting": {di.WithName("greeting")}}
//	}
//
//	inj, err := di.New(AppModule{}, di.Constructors(NewService))
//	svc, err := di.Get[*Service](inj)
//
// 作用域默认为 transient；提供方法用 di.WithSingleton 声明单例，
// 或者在类型中嵌入 di.Singleton。
//
// 绑定在第一次请求时创建，并立即检查直接依赖中的循环。
// 需要相互引用的类型用 di.Provider[T] 延迟获取依赖。
package di
