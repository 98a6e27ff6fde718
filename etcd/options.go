package etcd

import (
	"fmt"
	"sort"
	"time"

	"github.com/gocrud/feather/config"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Section etcd 客户端配置所在的节
const Section = "etcd"

// DefaultClient 默认客户端的名称
const DefaultClient = "default"

// ClientOptions etcd 客户端配置选项
type ClientOptions struct {
	Endpoints          []string        `json:"endpoints"`
	DialTimeout        config.Duration `json:"dialTimeout"`
	Username           string          `json:"username"`
	Password           string          `json:"password"`
	AutoSyncInterval   config.Duration `json:"autoSyncInterval"`
	MaxCallSendMsgSize int             `json:"maxCallSendMsgSize"`
	MaxCallRecvMsgSize int             `json:"maxCallRecvMsgSize"`
}

// DefaultOptions 返回默认配置
func DefaultOptions() ClientOptions {
	return ClientOptions{
		Endpoints:   []string{"localhost:2379"},
		DialTimeout: config.Duration(5 * time.Second),
	}
}

// Validate 验证配置
func (o ClientOptions) Validate() error {
	if len(o.Endpoints) == 0 {
		return fmt.Errorf("etcd endpoints are required")
	}
	if o.DialTimeout <= 0 {
		return fmt.Errorf("etcd dial timeout must be positive")
	}
	return nil
}

// clientConfig 转换为 clientv3 配置
func (o ClientOptions) clientConfig() clientv3.Config {
	cfg := clientv3.Config{
		Endpoints:   o.Endpoints,
		DialTimeout: o.DialTimeout.Std(),
	}
	if o.Username != "" {
		cfg.Username = o.Username
		cfg.Password = o.Password
	}
	if o.AutoSyncInterval > 0 {
		cfg.AutoSyncInterval = o.AutoSyncInterval.Std()
	}
	if o.MaxCallSendMsgSize > 0 {
		cfg.MaxCallSendMsgSize = o.MaxCallSendMsgSize
	}
	if o.MaxCallRecvMsgSize > 0 {
		cfg.MaxCallRecvMsgSize = o.MaxCallRecvMsgSize
	}
	return cfg
}

// LoadOptions 从 etcd 节读取各个命名客户端的配置
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
			return nil, fmt.Errorf("etcd client '%s': %w", name, err)
		}
		if err := opts.Validate(); err != nil {
			return nil, fmt.Errorf("invalid etcd configuration for '%s': %w", name, err)
		}
		result[name] = opts
	}
	return result, nil
}
