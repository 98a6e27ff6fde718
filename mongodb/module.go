package mongodb

import (
	"context"

	"github.com/gocrud/feather/config"
	"github.com/gocrud/feather/di"
	"github.com/gocrud/feather/logging"
	"github.com/gocrud/mgo"
)

// Module 提供 MongoDB 客户端：*ClientFactory 为单例，*mgo.Client 为 default 客户端
type Module struct {
	clients map[string]ClientOptions
}

// NewModule 从配置的 mongodb 节创建模块
func NewModule(cfg config.Configuration) (*Module, error) {
	clients, err := LoadOptions(cfg)
	if err != nil {
		return nil, err
	}
	return &Module{clients: clients}, nil
}

// Annotate 声明工厂为单例
func (m *Module) Annotate() di.Annotations {
	return di.Annotations{
		"ProvideClientFactory": {di.WithSingleton()},
	}
}

// ProvideClientFactory 创建全部已配置的客户端
func (m *Module) ProvideClientFactory(logger logging.Logger) (*ClientFactory, error) {
	factory := NewClientFactory()
	for name, opts := range m.clients {
		if err := factory.Register(name, opts); err != nil {
			factory.Dispose(context.Background())
			return nil, err
		}
		logger.Info("mongo client registered", logging.Field{Key: "name", Value: name})
	}
	return factory, nil
}

// ProvideClient 提供默认客户端
func (m *Module) ProvideClient(factory *ClientFactory) (*mgo.Client, error) {
	return factory.Get(DefaultClient)
}

