package feather_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/feather"
	"github.com/gocrud/feather/config"
	"github.com/gocrud/feather/cron"
	"github.com/gocrud/feather/database"
	"github.com/gocrud/feather/di"
	"github.com/gocrud/feather/hosting"
	"github.com/gocrud/feather/logging"
	"github.com/gocrud/feather/web"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newConfig(t *testing.T, data map[string]any) config.Configuration {
	t.Helper()
	cfg, err := config.NewConfigurationBuilder().AddInMemory(data).Build()
	require.NoError(t, err)
	return cfg
}

func quietLogging() logging.LoggerFactory {
	return logging.NewLoggingBuilder().Build()
}

// TestService 模拟业务服务
type TestService struct {
	db  *gorm.DB
	cfg config.Configuration
}

func NewTestService(db *gorm.DB, cfg config.Configuration) *TestService {
	return &TestService{db: db, cfg: cfg}
}

func (s *TestService) AppName() string {
	return s.cfg.Get("app.name")
}

// TestController 模拟控制器
type TestController struct {
	service *TestService
}

func NewTestController(svc *TestService) *TestController {
	return &TestController{service: svc}
}

func (c *TestController) MountRoutes(r gin.IRouter) {
	r.GET("/ping", func(ctx *gin.Context) {
		name := c.service.AppName()
		if c.service.db == nil {
			name += "-nodb"
		}
		ctx.String(http.StatusOK, "pong: "+name)
	})
}

func TestIntegration(t *testing.T) {
	cfg := newConfig(t, map[string]any{
		"app": map[string]any{"name": "IntegrationTest", "shutdownTimeout": "5s"},
		"web": map[string]any{"mode": "test", "port": 0},
		"database": map[string]any{
			"default": map[string]any{"dsn": "file:feather_app?mode=memory&cache=shared"},
		},
	})

	webModule, err := web.NewModule(cfg)
	require.NoError(t, err)
	dbModule, err := database.NewModule(cfg)
	require.NoError(t, err)
	cronModule, err := cron.NewModule(cfg)
	require.NoError(t, err)
	cronModule.AddJob("@every 1h", "report", func(svc *TestService) error {
		return nil
	})

	app, err := feather.NewBuilder(cfg).
		UseLogging(quietLogging()).
		AddModule(
			webModule.AddControllers(di.KeyOf[*TestController]()),
			dbModule,
			cronModule,
			di.Constructors(NewTestService, NewTestController),
		).
		AddHostedService(di.KeyOf[*cron.Scheduler](), di.KeyOf[*web.Host]()).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "IntegrationTest", app.Name())
	_, err = uuid.Parse(app.ID())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx))
	assert.Error(t, app.Start(ctx))

	host, err := di.Get[*web.Host](app.Injector())
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(host.Address())
	require.NoError(t, err)
	url := "http://127.0.0.1:" + port + "/ping"

	resp, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong: IntegrationTest", string(body))

	scheduler, err := di.Get[*cron.Scheduler](app.Injector())
	require.NoError(t, err)
	assert.Equal(t, []string{"report"}, scheduler.Jobs())

	require.NoError(t, app.Stop(ctx))
	require.NoError(t, app.Stop(ctx))

	_, err = http.Get(url)
	assert.Error(t, err)
	_, err = di.Get[*TestService](app.Injector())
	assert.ErrorIs(t, err, di.ErrClosed)
	assert.ErrorIs(t, app.Start(ctx), di.ErrClosed)
}

// 记录托管服务的启停顺序
type events struct {
	mu   sync.Mutex
	list []string
}

func (e *events) add(event string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.list = append(e.list, event)
}

func (e *events) get() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.list...)
}

type Worker struct {
	di.Singleton
	name     string
	events   *events
	startErr error
}

func (w *Worker) Start(ctx context.Context) error {
	if w.startErr != nil {
		return w.startErr
	}
	w.events.add("start " + w.name)
	return nil
}

func (w *Worker) Stop(ctx context.Context) error {
	w.events.add("stop " + w.name)
	return nil
}

func (w *Worker) Dispose(ctx context.Context) error {
	w.events.add("dispose " + w.name)
	return nil
}

// WorkerModule 提供两个命名的 Worker 和一个后台服务
type WorkerModule struct {
	events   *events
	startErr error
}

func (m WorkerModule) ProvideIngest() *Worker {
	return &Worker{name: "ingest", events: m.events}
}

func (m WorkerModule) ProvideExport() *Worker {
	return &Worker{name: "export", events: m.events, startErr: m.startErr}
}

func (m WorkerModule) ProvideTicker(logger logging.Logger) *hosting.BackgroundService {
	return hosting.NewBackgroundService("ticker", logger, func(ctx context.Context) error {
		m.events.add("tick")
		<-ctx.Done()
		return ctx.Err()
	})
}

func (m WorkerModule) Annotate() di.Annotations {
	return di.Annotations{
		"ProvideIngest": {di.WithName("ingest")},
		"ProvideExport": {di.WithName("export")},
		"ProvideTicker": {di.WithSingleton()},
	}
}

var (
	ingestKey = di.QualifiedKeyOf[*Worker](di.Named("ingest"))
	exportKey = di.QualifiedKeyOf[*Worker](di.Named("export"))
	tickerKey = di.KeyOf[*hosting.BackgroundService]()
)

func TestHostedServiceOrder(t *testing.T) {
	ev := &events{}
	app, err := feather.NewBuilder(nil).
		UseLogging(quietLogging()).
		AddModule(WorkerModule{events: ev}).
		AddHostedService(ingestKey, exportKey).
		Build()
	require.NoError(t, err)

	require.NoError(t, app.Start(context.Background()))
	require.NoError(t, app.Stop(context.Background()))

	// 先按相反顺序停止服务，再由注入器按创建的相反顺序释放
	assert.Equal(t, []string{
		"start ingest", "start export",
		"stop export", "stop ingest",
		"dispose export", "dispose ingest",
	}, ev.get())
}

func TestHostedServiceStartFailure(t *testing.T) {
	ev := &events{}
	sentinel := errors.New("export unavailable")
	app, err := feather.NewBuilder(nil).
		UseLogging(quietLogging()).
		AddModule(WorkerModule{events: ev, startErr: sentinel}).
		AddHostedService(ingestKey, exportKey).
		Build()
	require.NoError(t, err)

	err = app.Run(context.Background())
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, []string{
		"start ingest", "stop ingest",
		"dispose export", "dispose ingest",
	}, ev.get())
}

type NotAService struct{}

func TestHostedServiceErrors(t *testing.T) {
	// 无法解析的 Key 在 Build 时报错
	_, err := feather.NewBuilder(nil).
		UseLogging(quietLogging()).
		AddHostedService(di.KeyOf[io.Reader]()).
		Build()
	var nuc *di.NoUsableConstructorError
	assert.ErrorAs(t, err, &nuc)

	// 实例没有实现 HostedService 时在 Start 报错
	app, err := feather.NewBuilder(nil).
		UseLogging(quietLogging()).
		AddHostedService(di.KeyOf[*NotAService]()).
		Build()
	require.NoError(t, err)
	assert.ErrorContains(t, app.Start(context.Background()), "does not implement hosting.HostedService")
	require.NoError(t, app.Stop(context.Background()))

	// 无效的应用配置
	_, err = feather.NewBuilder(newConfig(t, map[string]any{
		"app": map[string]any{"shutdownTimeout": "soon"},
	})).Build()
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	ev := &events{}
	app, err := feather.NewBuilder(nil).
		UseLogging(quietLogging()).
		UseShutdownTimeout(time.Second).
		AddModule(WorkerModule{events: ev}).
		AddHostedService(ingestKey, tickerKey).
		Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool {
		for _, e := range ev.get() {
			if e == "tick" {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	ticker, err := di.Get[*hosting.BackgroundService](app.Injector())
	assert.ErrorIs(t, err, di.ErrClosed)
	assert.Nil(t, ticker)
	assert.Contains(t, ev.get(), "stop ingest")
}

func TestRunShutdown(t *testing.T) {
	ev := &events{}
	app, err := feather.NewBuilder(nil).
		UseLogging(quietLogging()).
		AddModule(WorkerModule{events: ev}).
		AddHostedService(ingestKey).
		Build()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		return len(ev.get()) > 0
	}, 5*time.Second, 10*time.Millisecond)

	app.Shutdown()
	app.Shutdown()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
	assert.Equal(t, []string{"start ingest", "stop ingest", "dispose ingest"}, ev.get())
}

func TestWatchConfigFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: watched\ngreeting: hello\n"), 0o644))

	cfg, err := config.NewConfigurationBuilder().AddYamlFile(path).Build()
	require.NoError(t, err)

	app, err := feather.NewBuilder(cfg).
		UseLogging(quietLogging()).
		WatchConfigFiles(path).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "watched", app.Name())
	require.NoError(t, app.Start(context.Background()))

	// 注入的 Configuration 与传入的是同一个，文件变化后读到新值
	injected, err := di.Get[config.Configuration](app.Injector())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: watched\ngreeting: bonjour\n"), 0o644))
	require.Eventually(t, func() bool {
		return injected.Get("greeting") == "bonjour"
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, app.Stop(context.Background()))

	// 不能重新加载的配置
	_, err = feather.NewBuilder(cfg.GetSection("app")).
		UseLogging(quietLogging()).
		WatchConfigFiles(path).
		Build()
	assert.ErrorContains(t, err, "does not support reload")
}
