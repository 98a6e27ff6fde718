package redis

import (
	"fmt"
	"sort"
	"time"

	"github.com/gocrud/feather/config"
)

// Section redis 配置所在的节
const Section = "redis"

// DefaultClient 默认客户端的名称
const DefaultClient = "default"

// ClientOptions Redis 客户端配置选项
type ClientOptions struct {
	Addr         string          `json:"addr"`         // Redis 服务器地址 (host:port)
	Password     string          `json:"password"`     // 密码（可选）
	DB           int             `json:"db"`           // 数据库编号
	DialTimeout  config.Duration `json:"dialTimeout"`  // 连接超时时间
	ReadTimeout  config.Duration `json:"readTimeout"`  // 读取超时时间
	WriteTimeout config.Duration `json:"writeTimeout"` // 写入超时时间
	PoolSize     int             `json:"poolSize"`     // 连接池大小
	MinIdleConns int             `json:"minIdleConns"` // 最小空闲连接数
	MaxRetries   int             `json:"maxRetries"`   // 最大重试次数
}

// DefaultOptions 返回默认配置
func DefaultOptions() ClientOptions {
	return ClientOptions{
		Addr:         "localhost:6379",
		DialTimeout:  config.Duration(5 * time.Second),
		ReadTimeout:  config.Duration(3 * time.Second),
		WriteTimeout: config.Duration(3 * time.Second),
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
	}
}

// Validate 验证配置
func (o ClientOptions) Validate() error {
	if o.Addr == "" {
		return fmt.Errorf("redis address is required")
	}
	if o.DB < 0 {
		return fmt.Errorf("redis database number must be non-negative")
	}
	if o.DialTimeout <= 0 {
		return fmt.Errorf("redis dial timeout must be positive")
	}
	return nil
}

// LoadOptions 从 redis 节读取各个命名客户端的配置，未填写的字段使用默认值：
//
//	redis:
//	  default:
//	    addr: localhost:6379
//	  cache:
//	    addr: cache:6379
//	    db: 1
func LoadOptions(cfg config.Configuration) (map[string]ClientOptions, error) {
	section := cfg.GetSection(Section)
	names := make([]string, 0)
	for name := range section.GetAll() {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make(map[string]ClientOptions, len(names))
	for _, name := range names {
		opts := DefaultOptions()
		if err := section.Bind(name, &opts); err != nil {
			return nil, fmt.Errorf("redis client '%s': %w", name, err)
		}
		if err := opts.Validate(); err != nil {
			return nil, fmt.Errorf("invalid redis configuration for '%s': %w", name, err)
		}
		result[name] = opts
	}
	return result, nil
}
