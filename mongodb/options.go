package mongodb

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gocrud/feather/config"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Section MongoDB 配置所在的节
const Section = "mongodb"

// DefaultClient 默认客户端的名称
const DefaultClient = "default"

// ClientOptions MongoDB 客户端配置选项
type ClientOptions struct {
	URI         string          `json:"uri"`
	Username    string          `json:"username"`
	Password    string          `json:"password"`
	MaxPoolSize uint64          `json:"maxPoolSize"`
	MinPoolSize uint64          `json:"minPoolSize"`
	Timeout     config.Duration `json:"timeout"`
}

// DefaultOptions 返回默认配置
func DefaultOptions() ClientOptions {
	return ClientOptions{
		MaxPoolSize: 100,
		MinPoolSize: 5,
		Timeout:     config.Duration(10 * time.Second),
	}
}

// Validate 验证配置
func (o ClientOptions) Validate() error {
	if o.URI == "" {
		return fmt.Errorf("mongo uri is required")
	}
	if !strings.HasPrefix(o.URI, "mongodb://") && !strings.HasPrefix(o.URI, "mongodb+srv://") {
		return fmt.Errorf("mongo uri must use the mongodb:// or mongodb+srv:// scheme")
	}
	if o.MinPoolSize > o.MaxPoolSize && o.MaxPoolSize > 0 {
		return fmt.Errorf("mongo minPoolSize must not exceed maxPoolSize")
	}
	return nil
}

// driverOptions 转换为驱动的客户端选项，URI 由 mgo.NewClient 单独传入
func (o ClientOptions) driverOptions() *options.ClientOptions {
	clientOpts := options.Client()
	if o.Username != "" || o.Password != "" {
		clientOpts.SetAuth(options.Credential{
			Username: o.Username,
			Password: o.Password,
		})
	}
	if o.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(o.MaxPoolSize)
	}
	if o.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(o.MinPoolSize)
	}
	if o.Timeout > 0 {
		clientOpts.SetConnectTimeout(o.Timeout.Std())
	}
	return clientOpts
}

// LoadOptions 从 mongodb 节读取各个命名客户端的配置
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
			return nil, fmt.Errorf("mongo client '%s': %w", name, err)
		}
		if err := opts.Validate(); err != nil {
			return nil, fmt.Errorf("invalid mongo configuration for '%s': %w", name, err)
		}
		result[name] = opts
	}
	return result, nil
}
