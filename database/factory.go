package database

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"
)

// Factory 按名称管理数据库连接
type Factory struct {
	dbs map[string]*gorm.DB
	mu  sync.RWMutex
}

// NewFactory 创建数据库工厂
func NewFactory() *Factory {
	return &Factory{
		dbs: make(map[string]*gorm.DB),
	}
}

// Open 打开数据库、配置连接池并执行自动迁移
func (f *Factory) Open(name string, opts Options, models ...any) error {
	dialector, err := opts.Dialector()
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.dbs[name]; exists {
		return fmt.Errorf("database '%s' already registered", name)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to open database '%s': %w", name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB for '%s': %w", name, err)
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opts.MaxLifetime.Std())

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			sqlDB.Close()
			return fmt.Errorf("auto migrate failed for '%s': %w", name, err)
		}
	}

	f.dbs[name] = db
	return nil
}

// Get 获取指定名称的数据库
func (f *Factory) Get(name string) (*gorm.DB, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	db, exists := f.dbs[name]
	if !exists {
		return nil, fmt.Errorf("database '%s' not found", name)
	}
	return db, nil
}

// Names 返回已打开的数据库名称（已排序）
func (f *Factory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.dbs))
	for name := range f.dbs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close 关闭所有数据库连接
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for name, db := range f.dbs {
		sqlDB, err := db.DB()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to get sql.DB for '%s': %w", name, err))
			continue
		}
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database '%s': %w", name, err))
		}
	}
	f.dbs = make(map[string]*gorm.DB)

	return errors.Join(errs...)
}
