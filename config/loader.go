package config

import (
	"path/filepath"
	"strings"
)

// LoadOptions 配置加载选项
type LoadOptions struct {
	Paths     []string
	EnvPrefix string
	Optional  bool
}

// LoadOption 配置加载选项函数
type LoadOption func(*LoadOptions)

// WithEnvPrefix 同时加载指定前缀的环境变量，环境变量覆盖文件中的值
func WithEnvPrefix(prefix string) LoadOption {
	return func(o *LoadOptions) {
		o.EnvPrefix = prefix
	}
}

// WithOptionalFiles 文件不存在时忽略
func WithOptionalFiles() LoadOption {
	return func(o *LoadOptions) {
		o.Optional = true
	}
}

// LoadFiles 按扩展名加载配置文件（.json 用 JSON，其余按 YAML 解析）
func LoadFiles(paths []string, opts ...LoadOption) (Configuration, error) {
	options := &LoadOptions{Paths: paths}
	for _, opt := range opts {
		opt(options)
	}

	builder := NewConfigurationBuilder()
	for _, p := range options.Paths {
		if strings.EqualFold(filepath.Ext(p), ".json") {
			builder.AddJsonFile(p, options.Optional)
		} else {
			builder.AddYamlFile(p, options.Optional)
		}
	}
	if options.EnvPrefix != "" {
		builder.AddEnvironmentVariables(options.EnvPrefix)
	}

	return builder.Build()
}
