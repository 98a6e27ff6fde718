package cron

import (
	"fmt"
	"time"

	"github.com/gocrud/feather/config"
)

// Section 定时任务配置所在的节
const Section = "cron"

// Options 调度器配置选项
type Options struct {
	// Location 时区设置，默认 UTC
	Location string `json:"location"`
	// Seconds 是否启用秒级精度（默认分钟级）
	Seconds bool `json:"seconds"`
	// CronLogger 是否启用 cron 库的内部调度日志
	CronLogger bool `json:"cronLogger"`
}

// DefaultOptions 返回默认配置
func DefaultOptions() Options {
	return Options{Location: "UTC"}
}

// location 解析时区
func (o Options) location() (*time.Location, error) {
	if o.Location == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(o.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid cron location '%s': %w", o.Location, err)
	}
	return loc, nil
}

// LoadOptions 读取 cron 节，未配置时返回默认值
func LoadOptions(cfg config.Configuration) (Options, error) {
	opts, err := config.LoadOrDefault(cfg, Section, DefaultOptions())
	if err != nil {
		return Options{}, err
	}
	if _, err := opts.location(); err != nil {
		return Options{}, err
	}
	return opts, nil
}
