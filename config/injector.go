package config

import (
	"fmt"
	"os"

	"github.com/gocrud/feather/di"
	"github.com/gocrud/feather/logging"
)

// InjectorSection 注入器设置所在的配置节
const InjectorSection = "injector"

// InjectorSettings 注入器的日志设置
//
//	injector:
//	  logLevel: debug
//	  logFormat: json
type InjectorSettings struct {
	LogLevel  string `json:"logLevel"`
	LogFormat string `json:"logFormat"` // text（默认）或 json
}

// InjectorOptions 根据 injector 节创建 di.Options，日志输出到 os.Stderr。
// 节不存在时返回默认设置（不输出日志）。配置重新加载后日志级别随之更新。
func InjectorOptions(cfg Configuration) (di.Options, error) {
	cache := NewOptionsCache[InjectorSettings](cfg, InjectorSection)
	if err := cache.Err(); err != nil {
		return di.Options{}, fmt.Errorf("config: %w", err)
	}

	settings := cache.Get()
	if settings.LogLevel == "" {
		return di.Options{}, nil
	}

	level, err := logging.ParseLogLevel(settings.LogLevel)
	if err != nil {
		return di.Options{}, fmt.Errorf("config: %s: %w", InjectorSection, err)
	}

	factory := logging.NewLoggingBuilder().
		SetMinimumLevel(level).
		AddConsole(logging.ConsoleLoggerOptions{
			IncludeTimestamp: true,
			Json:             settings.LogFormat == "json",
			Output:           os.Stderr,
		}).
		Build()

	cache.OnChange(func(settings InjectorSettings) {
		if level, err := logging.ParseLogLevel(settings.LogLevel); err == nil {
			factory.SetMinimumLevel(level)
		}
	})

	return di.Options{Logger: factory.CreateLogger("di")}, nil
}
