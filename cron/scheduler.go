package cron

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gocrud/feather/di"
	"github.com/gocrud/feather/logging"
	"github.com/robfig/cron/v3"
)

// Scheduler 定时任务调度器。
// 作为单例由注入器管理，注入器关闭时停止调度并等待运行中的任务。
type Scheduler struct {
	cron    *cron.Cron
	inj     *di.Injector
	logger  logging.Logger
	mu      sync.RWMutex
	jobs    map[string]cron.EntryID // 任务名称到任务ID的映射
	started bool
}

// NewScheduler 创建调度器。inj 为 nil 时只能添加无参任务
func NewScheduler(inj *di.Injector, logger logging.Logger, opts Options) (*Scheduler, error) {
	loc, err := opts.location()
	if err != nil {
		return nil, err
	}

	cronOpts := []cron.Option{cron.WithLocation(loc)}

	// 只在启用时添加 cron 库的日志记录器
	if opts.CronLogger {
		cronOpts = append(cronOpts, cron.WithLogger(newCronLogger(logger)))
	}

	cronOpts = append(cronOpts, cron.WithChain(
		cron.Recover(newCronLogger(logger)),
	))

	if opts.Seconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}

	return &Scheduler{
		cron:   cron.New(cronOpts...),
		inj:    inj,
		logger: logger,
		jobs:   make(map[string]cron.EntryID),
	}, nil
}

// AddJob 添加定时任务。
// spec: cron 表达式，如 "*/5 * * * *" (每5分钟) 或 "0 2 * * *" (每天凌晨2点)
// handler: func()，或参数从注入器解析的函数，例如
//
//	scheduler.AddJob("0 */5 * * * *", "sync-data", func(svc *DataService) error {
//	    return svc.Sync()
//	})
func (s *Scheduler) AddJob(spec, name string, handler any) error {
	job, err := bindHandler(s.inj, handler, func(err error) {
		s.logger.Error("cron job failed",
			logging.Field{Key: "job", Value: name},
			logging.Field{Key: "error", Value: err.Error()})
	})
	if err != nil {
		return fmt.Errorf("cron job '%s': %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("cron job '%s' already registered", name)
	}

	entryID, err := s.cron.AddFunc(spec, func() {
		s.logger.Debug("cron job started", logging.Field{Key: "job", Value: name})
		defer s.logger.Debug("cron job completed", logging.Field{Key: "job", Value: name})
		job()
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job '%s': %w", name, err)
	}

	s.jobs[name] = entryID
	s.logger.Info("cron job registered",
		logging.Field{Key: "job", Value: name},
		logging.Field{Key: "spec", Value: spec})
	return nil
}

// Remove 移除定时任务，返回任务是否存在
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, exists := s.jobs[name]
	if !exists {
		return false
	}
	s.cron.Remove(entryID)
	delete(s.jobs, name)
	s.logger.Info("cron job removed", logging.Field{Key: "job", Value: name})
	return true
}

// Jobs 返回已注册的任务名称（已排序）
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start 在后台开始调度，重复调用无效果。Scheduler 实现 hosting.HostedService
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true
	s.logger.Info("cron scheduler starting", logging.Field{Key: "jobs", Value: len(s.jobs)})
	s.cron.Start()
	return nil
}

// Stop 停止调度并等待运行中的任务完成或 ctx 超时
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	if !started {
		return nil
	}

	s.logger.Info("cron scheduler stopping")
	stopCtx := s.cron.Stop()

	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispose 在注入器关闭时调用
func (s *Scheduler) Dispose(ctx context.Context) error {
	return s.Stop(ctx)
}

// cronLogger 适配器：将框架日志接口适配到 cron 的日志接口
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, convertToFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := convertToFields(keysAndValues)
	fields = append(fields, logging.Field{Key: "error", Value: err.Error()})
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.Field{
			Key:   fmt.Sprintf("%v", keysAndValues[i]),
			Value: keysAndValues[i+1],
		})
	}
	return fields
}
