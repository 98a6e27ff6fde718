package feather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gocrud/feather/config"
	"github.com/gocrud/feather/di"
	"github.com/gocrud/feather/hosting"
	"github.com/gocrud/feather/logging"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Section 应用设置所在的配置节
const Section = "app"

// Options 应用设置
//
//	app:
//	  name: orders
//	  shutdownTimeout: 30s
type Options struct {
	Name            string          `json:"name"`
	ShutdownTimeout config.Duration `json:"shutdownTimeout"`
}

// DefaultOptions 返回默认应用设置
func DefaultOptions() Options {
	return Options{
		Name:            "feather",
		ShutdownTimeout: config.Duration(30 * time.Second),
	}
}

// Builder 应用构建器。
//
//	app, err := feather.NewBuilder(cfg).
//	    AddModule(webModule, &AppModule{}).
//	    AddHostedService(di.KeyOf[*web.Host]()).
//	    Build()
type Builder struct {
	cfg             config.Configuration
	loggerFactory   logging.LoggerFactory
	tracer          trace.Tracer
	modules         []any
	services        []di.Key
	watchFiles      []string
	shutdownTimeout time.Duration
}

// NewBuilder 创建应用构建器，cfg 为 nil 时使用空配置
func NewBuilder(cfg config.Configuration) *Builder {
	return &Builder{cfg: cfg}
}

// UseLogging 设置日志工厂，未设置时使用默认控制台日志
func (b *Builder) UseLogging(factory logging.LoggerFactory) *Builder {
	b.loggerFactory = factory
	return b
}

// UseTracer 设置注入器使用的 tracer
func (b *Builder) UseTracer(tracer trace.Tracer) *Builder {
	b.tracer = tracer
	return b
}

// AddModule 添加模块（模块实例或 di.Constructors）
func (b *Builder) AddModule(modules ...any) *Builder {
	b.modules = append(b.modules, modules...)
	return b
}

// AddHostedService 登记托管服务的 Key，对应的实例必须实现 hosting.HostedService。
// 服务按登记顺序启动，按相反顺序停止。
func (b *Builder) AddHostedService(keys ...di.Key) *Builder {
	b.services = append(b.services, keys...)
	return b
}

// WatchConfigFiles 运行期间监听这些配置文件，变化时重新加载配置
func (b *Builder) WatchConfigFiles(paths ...string) *Builder {
	b.watchFiles = append(b.watchFiles, paths...)
	return b
}

// UseShutdownTimeout 覆盖配置中的关闭超时
func (b *Builder) UseShutdownTimeout(timeout time.Duration) *Builder {
	b.shutdownTimeout = timeout
	return b
}

// Build 创建注入器并检查托管服务是否都可以解析
func (b *Builder) Build() (*Application, error) {
	cfg := b.cfg
	if cfg == nil {
		var err error
		if cfg, err = config.NewConfigurationBuilder().Build(); err != nil {
			return nil, err
		}
	}

	opts, err := config.LoadOrDefault(cfg, Section, DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("feather: %s: %w", Section, err)
	}
	timeout := opts.ShutdownTimeout.Std()
	if b.shutdownTimeout > 0 {
		timeout = b.shutdownTimeout
	}

	injOpts, err := config.InjectorOptions(cfg)
	if err != nil {
		return nil, err
	}
	injOpts.Tracer = b.tracer

	modules := make([]any, 0, len(b.modules)+2)
	modules = append(modules, config.NewModule(cfg), logging.NewModule(b.loggerFactory))
	modules = append(modules, b.modules...)

	inj, err := di.NewWithOptions(injOpts, modules...)
	if err != nil {
		return nil, err
	}

	logger, err := di.Get[logging.Logger](inj)
	if err != nil {
		return nil, errors.Join(err, inj.Close(context.Background()))
	}
	id := uuid.NewString()
	logger = logger.WithCategory(opts.Name).WithFields(logging.Field{Key: "instance", Value: id})

	var watcher *config.FileWatcher
	if len(b.watchFiles) > 0 {
		if watcher, err = config.NewFileWatcher(cfg, logger, b.watchFiles...); err != nil {
			return nil, errors.Join(err, inj.Close(context.Background()))
		}
	}

	handles := make([]di.LazyHandle, 0, len(b.services))
	for _, key := range b.services {
		h, err := inj.Resolve(key)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("feather: hosted service %s: %w", key, err), inj.Close(context.Background()))
		}
		handles = append(handles, h)
	}

	logger.Info("application built",
		logging.Field{Key: "modules", Value: len(b.modules)},
		logging.Field{Key: "hostedServices", Value: len(handles)})

	return &Application{
		id:              id,
		name:            opts.Name,
		inj:             inj,
		watcher:         watcher,
		logger:          logger,
		handles:         handles,
		shutdownTimeout: timeout,
		stopCh:          make(chan struct{}),
	}, nil
}

// Application 应用程序：一个注入器加上按顺序启停的托管服务
type Application struct {
	id              string
	name            string
	inj             *di.Injector
	watcher         *config.FileWatcher
	logger          logging.Logger
	handles         []di.LazyHandle
	manager         *hosting.HostedServiceManager
	shutdownTimeout time.Duration

	mu       sync.Mutex
	started  bool
	stopped  bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// ID 本次运行的实例标识
func (a *Application) ID() string {
	return a.id
}

// Name 应用名称
func (a *Application) Name() string {
	return a.name
}

// Injector 获取注入器
func (a *Application) Injector() *di.Injector {
	return a.inj
}

// Logger 获取应用日志记录器
func (a *Application) Logger() logging.Logger {
	return a.logger
}

// Start 创建并启动全部托管服务。任一服务失败时已启动的服务会被停止。
func (a *Application) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return di.ErrClosed
	}
	if a.started {
		return errors.New("feather: application already started")
	}

	a.logger.Info("starting application")

	services := make([]hosting.HostedService, 0, len(a.handles)+1)
	// 配置监听最先启动，最后停止
	if a.watcher != nil {
		services = append(services, a.watcher)
	}
	for _, h := range a.handles {
		v, err := h.Get()
		if err != nil {
			return fmt.Errorf("feather: hosted service %s: %w", h.Key(), err)
		}
		svc, ok := v.(hosting.HostedService)
		if !ok {
			return fmt.Errorf("feather: %s does not implement hosting.HostedService", h.Key())
		}
		services = append(services, svc)
	}

	a.manager = hosting.NewHostedServiceManager(a.logger)
	a.manager.Add(services...)
	if err := a.manager.StartAll(ctx); err != nil {
		return err
	}
	a.started = true

	a.logger.Info("application started")
	return nil
}

// Stop 停止托管服务，然后关闭注入器释放单例。重复调用没有效果。
func (a *Application) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return nil
	}
	a.stopped = true

	a.logger.Info("stopping application")

	var errs []error
	if a.started {
		if err := a.manager.StopAll(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.inj.Close(ctx); err != nil {
		errs = append(errs, err)
	}

	err := errors.Join(errs...)
	if err != nil {
		a.logger.Error("application stopped with errors", logging.Field{Key: "error", Value: err.Error()})
	} else {
		a.logger.Info("application stopped")
	}
	return err
}
