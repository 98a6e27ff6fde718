package database

import (
	"fmt"
	"sort"
	"time"

	"github.com/gocrud/feather/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Section 数据库配置所在的节
const Section = "database"

// DefaultDatabase 默认数据库的名称
const DefaultDatabase = "default"

// Options 数据库配置选项
//
//	database:
//	  default:
//	    driver: sqlite
//	    dsn: file::memory:?cache=shared
//	    maxOpenConns: 5
type Options struct {
	Driver       string          `json:"driver"`
	DSN          string          `json:"dsn"`
	MaxIdleConns int             `json:"maxIdleConns"`
	MaxOpenConns int             `json:"maxOpenConns"`
	MaxLifetime  config.Duration `json:"maxLifetime"`
}

// DefaultOptions 返回默认配置
func DefaultOptions() Options {
	return Options{
		Driver:       "sqlite",
		MaxIdleConns: 10,
		MaxOpenConns: 100,
		MaxLifetime:  config.Duration(time.Hour),
	}
}

// Validate 验证配置
func (o Options) Validate() error {
	if o.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	if _, err := o.Dialector(); err != nil {
		return err
	}
	return nil
}

// Dialector 根据 driver 返回 GORM 驱动
func (o Options) Dialector() (gorm.Dialector, error) {
	switch o.Driver {
	case "", "sqlite":
		return sqlite.Open(o.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", o.Driver)
	}
}

// LoadOptions 从 database 节读取各个命名数据库的配置
func LoadOptions(cfg config.Configuration) (map[string]Options, error) {
	section := cfg.GetSection(Section)
	names := make([]string, 0)
	for name := range section.GetAll() {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make(map[string]Options, len(names))
	for _, name := range names {
		opts := DefaultOptions()
		if err := section.Bind(name, &opts); err != nil {
			return nil, fmt.Errorf("database '%s': %w", name, err)
		}
		if err := opts.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration for database '%s': %w", name, err)
		}
		result[name] = opts
	}
	return result, nil
}
