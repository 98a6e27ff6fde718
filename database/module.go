package database

import (
	"github.com/gocrud/feather/config"
	"github.com/gocrud/feather/di"
	"github.com/gocrud/feather/logging"
	"gorm.io/gorm"
)

// Module 提供 GORM 数据库：*Factory 为单例，*gorm.DB 为 default 数据库
type Module struct {
	databases map[string]Options
	models    []any
}

// NewModule 从配置的 database 节创建模块
func NewModule(cfg config.Configuration) (*Module, error) {
	databases, err := LoadOptions(cfg)
	if err != nil {
		return nil, err
	}
	return &Module{databases: databases}, nil
}

// WithModels 打开数据库时对这些模型执行自动迁移
func (m *Module) WithModels(models ...any) *Module {
	m.models = append(m.models, models...)
	return m
}

// Annotate 声明工厂为单例
func (m *Module) Annotate() di.Annotations {
	return di.Annotations{
		"ProvideFactory": {di.WithSingleton()},
	}
}

// ProvideFactory 打开全部已配置的数据库
func (m *Module) ProvideFactory(logger logging.Logger) (*Factory, error) {
	factory := NewFactory()
	for name, opts := range m.databases {
		if err := factory.Open(name, opts, m.models...); err != nil {
			factory.Close()
			return nil, err
		}
		logger.Info("database registered",
			logging.Field{Key: "name", Value: name},
			logging.Field{Key: "driver", Value: opts.Driver})
	}
	return factory, nil
}

// ProvideDB 提供默认数据库
func (m *Module) ProvideDB(factory *Factory) (*gorm.DB, error) {
	return factory.Get(DefaultDatabase)
}
