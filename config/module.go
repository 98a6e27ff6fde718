package config

// Module 把 Configuration 提供给注入器，各功能模块从中读取自己的配置节
type Module struct {
	cfg Configuration
}

// NewModule 创建配置模块
func NewModule(cfg Configuration) *Module {
	return &Module{cfg: cfg}
}

// ProvideConfiguration 提供根配置
func (m *Module) ProvideConfiguration() Configuration {
	return m.cfg
}
