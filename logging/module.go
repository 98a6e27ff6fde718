package logging

// Module 把日志工厂提供给注入器：
//
//	inj, err := di.New(logging.NewModule(factory), &AppModule{})
//
// 工厂由调用方创建，也由调用方关闭。
type Module struct {
	factory LoggerFactory
}

// NewModule 创建日志模块，factory 为 nil 时使用默认控制台日志
func NewModule(factory LoggerFactory) *Module {
	if factory == nil {
		factory = NewLoggingBuilder().AddConsole().Build()
	}
	return &Module{factory: factory}
}

// ProvideLoggerFactory 提供日志工厂
func (m *Module) ProvideLoggerFactory() LoggerFactory {
	return m.factory
}

// ProvideLogger 提供类别为 "app" 的 Logger，组件可用 WithCategory 细分
func (m *Module) ProvideLogger(factory LoggerFactory) Logger {
	return factory.CreateLogger("app")
}
