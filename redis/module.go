package redis

import (
	"github.com/gocrud/feather/config"
	"github.com/gocrud/feather/di"
	"github.com/gocrud/feather/logging"
	"github.com/redis/go-redis/v9"
)

// Module 提供 Redis 客户端：
//
//	ClientFactory   单例，注入器关闭时关闭所有客户端
//	*redis.Client   名为 default 的客户端
//
// 其他命名客户端通过 ClientFactory.Get 获取。
type Module struct {
	clients map[string]ClientOptions
}

// NewModule 从配置的 redis 节创建模块
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
			factory.Close()
			return nil, err
		}
		logger.Info("redis client registered",
			logging.Field{Key: "name", Value: name},
			logging.Field{Key: "addr", Value: opts.Addr},
			logging.Field{Key: "db", Value: opts.DB})
	}
	return factory, nil
}

// ProvideClient 提供默认客户端
func (m *Module) ProvideClient(factory *ClientFactory) (*redis.Client, error) {
	return factory.Get(DefaultClient)
}
