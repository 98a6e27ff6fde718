package web

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/feather/config"
)

// Section Web 主机配置所在的节
const Section = "web"

// Options Web 主机配置选项
type Options struct {
	// Port 监听端口，0 表示由系统分配
	Port int `json:"port"`
	// Mode Gin 模式：release、debug 或 test
	Mode string `json:"mode"`
	// ShutdownTimeout 注入器关闭时等待请求结束的最长时间
	ShutdownTimeout config.Duration `json:"shutdownTimeout"`
}

// DefaultOptions 返回默认配置
func DefaultOptions() Options {
	return Options{
		Port:            8080,
		Mode:            gin.ReleaseMode,
		ShutdownTimeout: config.Duration(10 * time.Second),
	}
}

// Validate 验证配置
func (o Options) Validate() error {
	if o.Port < 0 || o.Port > 65535 {
		return fmt.Errorf("web port %d out of range", o.Port)
	}
	switch o.Mode {
	case gin.ReleaseMode, gin.DebugMode, gin.TestMode:
	default:
		return fmt.Errorf("unknown gin mode '%s'", o.Mode)
	}
	return nil
}

// LoadOptions 读取 web 节，未配置时返回默认值
func LoadOptions(cfg config.Configuration) (Options, error) {
	opts, err := config.LoadOrDefault(cfg, Section, DefaultOptions())
	if err != nil {
		return Options{}, err
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}
