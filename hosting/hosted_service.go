package hosting

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gocrud/feather/logging"
)

// HostedService 托管服务接口（类似于 .NET Core IHostedService）
type HostedService interface {
	// Start 启动服务。服务就绪后立即返回，后台工作由服务自己的 goroutine 完成。
	Start(ctx context.Context) error

	// Stop 执行优雅关闭逻辑，ctx 超时后应尽快返回。
	Stop(ctx context.Context) error
}

// HostedServiceManager 托管服务管理器。
// 按添加顺序依次启动，按相反顺序停止。
type HostedServiceManager struct {
	services []HostedService
	started  []HostedService
	logger   logging.Logger
	mu       sync.Mutex
}

// NewHostedServiceManager 创建托管服务管理器
func NewHostedServiceManager(logger logging.Logger) *HostedServiceManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HostedServiceManager{
		services: make([]HostedService, 0),
		logger:   logger,
	}
}

// Add 添加托管服务
func (m *HostedServiceManager) Add(services ...HostedService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, services...)
}

// Len 返回托管服务数量
func (m *HostedServiceManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.services)
}

// StartAll 依次启动所有托管服务。
// 某个服务启动失败时，已启动的服务会按相反顺序停止，然后返回该错误。
func (m *HostedServiceManager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.started) > 0 {
		return errors.New("hosting: services already started")
	}

	m.logger.Info(fmt.Sprintf("Starting %d hosted services", len(m.services)))

	for i, service := range m.services {
		m.logger.Debug(fmt.Sprintf("Starting hosted service %d", i+1),
			logging.Field{Key: "type", Value: fmt.Sprintf("%T", service)})

		if err := service.Start(ctx); err != nil {
			m.logger.Error(fmt.Sprintf("Hosted service %d failed to start", i+1),
				logging.Field{Key: "error", Value: err.Error()})
			if stopErr := m.stopStarted(ctx); stopErr != nil {
				err = errors.Join(err, stopErr)
			}
			return fmt.Errorf("hosting: start %T: %w", service, err)
		}
		m.started = append(m.started, service)
	}

	m.logger.Info("All hosted services started")
	return nil
}

// StopAll 按启动的相反顺序停止所有已启动的服务，返回合并后的错误
func (m *HostedServiceManager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info(fmt.Sprintf("Stopping %d hosted services", len(m.started)))
	err := m.stopStarted(ctx)
	m.logger.Info("All hosted services stopped")
	return err
}

func (m *HostedServiceManager) stopStarted(ctx context.Context) error {
	var errs []error
	for i := len(m.started) - 1; i >= 0; i-- {
		service := m.started[i]
		if err := service.Stop(ctx); err != nil {
			m.logger.Error(fmt.Sprintf("Failed to stop hosted service %d", i+1),
				logging.Field{Key: "error", Value: err.Error()})
			errs = append(errs, fmt.Errorf("hosting: stop %T: %w", service, err))
			continue
		}
		m.logger.Debug(fmt.Sprintf("Hosted service %d stopped", i+1))
	}
	m.started = nil
	return errors.Join(errs...)
}

// BackgroundService 把一个阻塞函数包装成托管服务。
// Start 在独立的 goroutine 中运行函数，Stop 取消其 context 并等待返回。
type BackgroundService struct {
	name   string
	run    func(ctx context.Context) error
	logger logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	doneCh chan struct{}
	err    error
}

// NewBackgroundService 创建后台服务
func NewBackgroundService(name string, logger logging.Logger, run func(ctx context.Context) error) *BackgroundService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &BackgroundService{
		name:   name,
		run:    run,
		logger: logger,
	}
}

// Start 启动后台服务
func (s *BackgroundService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doneCh != nil {
		return fmt.Errorf("hosting: background service '%s' already started", s.name)
	}

	// 服务的生命周期不跟随启动 ctx，只由 Stop 结束
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.doneCh = make(chan struct{})

	s.logger.Info(fmt.Sprintf("BackgroundService '%s' starting", s.name))

	go func(done chan struct{}) {
		defer close(done)
		err := s.run(runCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error(fmt.Sprintf("BackgroundService '%s' failed", s.name),
				logging.Field{Key: "error", Value: err.Error()})
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
	}(s.doneCh)
	return nil
}

// Stop 停止后台服务，等待函数返回或 ctx 超时
func (s *BackgroundService) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.doneCh
	s.mu.Unlock()

	if done == nil {
		return nil
	}

	s.logger.Info(fmt.Sprintf("BackgroundService '%s' stopping", s.name))
	cancel()

	select {
	case <-done:
		s.logger.Info(fmt.Sprintf("BackgroundService '%s' stopped gracefully", s.name))
	case <-ctx.Done():
		s.logger.Warn(fmt.Sprintf("BackgroundService '%s' stop timeout", s.name))
		return ctx.Err()
	}
	return s.Err()
}

// Done 返回函数结束时关闭的通道，未启动时返回 nil
func (s *BackgroundService) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doneCh
}

// Err 返回函数的错误（context.Canceled 除外）
func (s *BackgroundService) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
