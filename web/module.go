package web

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/feather/config"
	"github.com/gocrud/feather/di"
	"github.com/gocrud/feather/logging"
)

// Controller 控制器接口
type Controller interface {
	// MountRoutes 注册路由
	MountRoutes(router gin.IRouter)
}

// Module 提供单例 *gin.Engine 与 *Host。
//
// 控制器在引擎创建时从注入器解析：
//
//	module.AddControllers(di.KeyOf[*UserController]())
//	inj, _ := di.New(module, di.Constructors(NewUserController))
type Module struct {
	opts        Options
	controllers []di.Key
	middleware  []gin.HandlerFunc
}

// NewModule 从配置的 web 节创建模块
func NewModule(cfg config.Configuration) (*Module, error) {
	opts, err := LoadOptions(cfg)
	if err != nil {
		return nil, err
	}
	return &Module{opts: opts}, nil
}

// AddControllers 登记控制器的 Key，对应的实例必须实现 Controller
func (m *Module) AddControllers(keys ...di.Key) *Module {
	m.controllers = append(m.controllers, keys...)
	return m
}

// Use 添加全局中间件
func (m *Module) Use(middleware ...gin.HandlerFunc) *Module {
	m.middleware = append(m.middleware, middleware...)
	return m
}

func (m *Module) Annotate() di.Annotations {
	return di.Annotations{
		"ProvideEngine": {di.WithSingleton()},
		"ProvideHost":   {di.WithSingleton()},
	}
}

// ProvideEngine 创建引擎并挂载全部控制器的路由
func (m *Module) ProvideEngine(inj *di.Injector, logger logging.Logger) (*gin.Engine, error) {
	logger = logger.WithCategory("web")
	gin.SetMode(m.opts.Mode)

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))
	engine.Use(m.middleware...)

	for _, key := range m.controllers {
		instance, err := inj.Get(key)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve controller %s: %w", key, err)
		}

		ctrl, ok := instance.(Controller)
		if !ok {
			return nil, fmt.Errorf("%s does not implement web.Controller", key)
		}

		ctrl.MountRoutes(engine)
		logger.Debug("mapped controller routes", logging.Field{Key: "controller", Value: key.String()})
	}
	return engine, nil
}

// ProvideHost 提供 Web 主机，调用方负责 Start
func (m *Module) ProvideHost(engine *gin.Engine, logger logging.Logger) *Host {
	return NewHost(engine, logger.WithCategory("web"), m.opts)
}

// requestLogger 记录每个请求的方法、路径、状态码与耗时
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("request handled",
			logging.Field{Key: "method", Value: c.Request.Method},
			logging.Field{Key: "path", Value: c.Request.URL.Path},
			logging.Field{Key: "status", Value: c.Writer.Status()},
			logging.Field{Key: "latency", Value: time.Since(start).String()})
	}
}
