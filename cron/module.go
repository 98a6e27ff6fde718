package cron

import (
	"github.com/gocrud/feather/config"
	"github.com/gocrud/feather/di"
	"github.com/gocrud/feather/logging"
)

// Module 提供单例 *Scheduler，并注册通过 AddJob 声明的任务。
//
//	module, _ := cron.NewModule(cfg)
//	module.AddJob("@every 1m", "cleanup", func(repo *SessionRepository) error {
//	    return repo.DeleteExpired()
//	})
type Module struct {
	opts Options
	jobs []jobDefinition
}

// NewModule 从配置的 cron 节创建模块
func NewModule(cfg config.Configuration) (*Module, error) {
	opts, err := LoadOptions(cfg)
	if err != nil {
		return nil, err
	}
	return &Module{opts: opts}, nil
}

// AddJob 声明任务，调度器创建时注册
func (m *Module) AddJob(spec, name string, handler any) *Module {
	m.jobs = append(m.jobs, jobDefinition{spec: spec, name: name, handler: handler})
	return m
}

func (m *Module) Annotate() di.Annotations {
	return di.Annotations{
		"ProvideScheduler": {di.WithSingleton()},
	}
}

// ProvideScheduler 创建调度器并注册全部任务，调用方负责 Start
func (m *Module) ProvideScheduler(inj *di.Injector, logger logging.Logger) (*Scheduler, error) {
	s, err := NewScheduler(inj, logger.WithCategory("cron"), m.opts)
	if err != nil {
		return nil, err
	}
	for _, job := range m.jobs {
		if err := s.AddJob(job.spec, job.name, job.handler); err != nil {
			return nil, err
		}
	}
	return s, nil
}
