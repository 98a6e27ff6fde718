package etcd

import (
	"github.com/gocrud/feather/config"
	"github.com/gocrud/feather/di"
	"github.com/gocrud/feather/logging"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Module 提供 etcd 客户端
type Module struct {
	clients map[string]ClientOptions
}

// NewModule 从配置的 etcd 节创建模块
func NewModule(cfg config.Configuration) (*Module, error) {
	clients, err := LoadOptions(cfg)
	if err != nil {
		return nil, err
	}
	return &Module{clients: clients}, nil
}

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
			factory.Close()
			return nil, err
		}
		logger.Info("etcd client registered",
			logging.Field{Key: "name", Value: name},
			logging.Field{Key: "endpoints", Value: opts.Endpoints})
	}
	return factory, nil
}

// ProvideClient 提供默认客户端
func (m *Module) ProvideClient(factory *ClientFactory) (*clientv3.Client, error) {
	return factory.Get(DefaultClient)
}
