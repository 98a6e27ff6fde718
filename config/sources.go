package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	clientv3 "go.etcd.io/etcd/client/v3"
	"gopkg.in/yaml.v3"
)

// EtcdOptions etcd 配置源选项
type EtcdOptions struct {
	Endpoints   []string      // etcd 服务器地址列表
	Username    string        // 用户名（可选）
	Password    string        // 密码（可选）
	Prefix      string        // 键前缀（可选）
	Timeout     time.Duration // 读取超时时间（默认 5 秒）
	DialTimeout time.Duration // 拨号超时时间（默认 5 秒）
}

// JsonFileSource JSON 文件配置源
type JsonFileSource struct {
	Path     string
	Optional bool
}

func (s *JsonFileSource) Name() string {
	return fmt.Sprintf("JsonFile(%s)", s.Path)
}

func (s *JsonFileSource) Load() (map[string]any, error) {
	return loadFile(s.Path, s.Optional, "JSON", json.Unmarshal)
}

// YamlFileSource YAML 文件配置源
type YamlFileSource struct {
	Path     string
	Optional bool
}

func (s *YamlFileSource) Name() string {
	return fmt.Sprintf("YamlFile(%s)", s.Path)
}

func (s *YamlFileSource) Load() (map[string]any, error) {
	return loadFile(s.Path, s.Optional, "YAML", yaml.Unmarshal)
}

// loadFile 读取并解析配置文件；可选文件不存在时返回空配置
func loadFile(path string, optional bool, format string, unmarshal func([]byte, any) error) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return make(map[string]any), nil
		}
		return nil, err
	}

	result := make(map[string]any)
	if err := unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", format, err)
	}
	return result, nil
}

// EnvironmentVariableSource 环境变量配置源
type EnvironmentVariableSource struct {
	Prefix string
}

func (s *EnvironmentVariableSource) Name() string {
	return fmt.Sprintf("EnvironmentVariables(%s)", s.Prefix)
}

func (s *EnvironmentVariableSource) Load() (map[string]any, error) {
	result := make(map[string]any)

	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		putEnvValue(result, s.Prefix, parts[0], parts[1])
	}

	return result, nil
}

// DotEnvFileSource .env 文件配置源，键的转换规则与环境变量相同
type DotEnvFileSource struct {
	Path     string
	Prefix   string
	Optional bool
}

func (s *DotEnvFileSource) Name() string {
	return fmt.Sprintf("DotEnvFile(%s)", s.Path)
}

func (s *DotEnvFileSource) Load() (map[string]any, error) {
	values, err := godotenv.Read(s.Path)
	if err != nil {
		if s.Optional && errors.Is(err, fs.ErrNotExist) {
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}

	result := make(map[string]any)
	for key, value := range values {
		putEnvValue(result, s.Prefix, key, value)
	}
	return result, nil
}

// putEnvValue 把 PREFIX_SERVER_PORT 形式的变量写入为 server:port
func putEnvValue(result map[string]any, prefix, key, value string) {
	// 检查前缀
	if prefix != "" && !strings.HasPrefix(key, prefix) {
		return
	}

	// 移除前缀
	key = strings.TrimPrefix(key, prefix)

	// 转换为小写（保持与 JSON 配置一致）
	key = strings.ToLower(key)

	// 将 _ 转换为 :
	key = strings.ReplaceAll(key, "_", ":")
	setNestedValue(result, key, value)
}

// InMemorySource 内存配置源
type InMemorySource struct {
	Data map[string]any
}

func (s *InMemorySource) Name() string {
	return "InMemory"
}

func (s *InMemorySource) Load() (map[string]any, error) {
	// 返回副本
	result := make(map[string]any)
	mergeMaps(result, s.Data)
	return result, nil
}

// setNestedValue 设置嵌套值
func setNestedValue(data map[string]any, path string, value any) {
	parts := strings.Split(path, ":")
	current := data

	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if _, exists := current[part]; !exists {
			current[part] = make(map[string]any)
		}
		if m, ok := current[part].(map[string]any); ok {
			current = m
		} else {
			return
		}
	}

	// 尝试转换字符串值为合适的类型
	if strValue, ok := value.(string); ok {
		// 尝试转换为整数
		if intValue, err := strconv.Atoi(strValue); err == nil {
			value = intValue
		} else if floatValue, err := strconv.ParseFloat(strValue, 64); err == nil {
			// 尝试转换为浮点数
			value = floatValue
		} else if boolValue, err := strconv.ParseBool(strValue); err == nil {
			// 尝试转换为布尔值
			value = boolValue
		}
		// 否则保持为字符串
	}

	current[parts[len(parts)-1]] = value
}

// EtcdSource etcd 配置源。键按 Prefix 去除前缀后，以 / 分隔的路径映射为嵌套节，
// 值依次尝试按 JSON、YAML 解析，失败时作为字符串。
type EtcdSource struct {
	Options EtcdOptions
	// Client 不为空时直接使用，不会被关闭
	Client *clientv3.Client
}

func (s *EtcdSource) Name() string {
	return fmt.Sprintf("Etcd(%v)", s.Options.Endpoints)
}

func (s *EtcdSource) Load() (map[string]any, error) {
	cli := s.Client
	if cli == nil {
		c, err := clientv3.New(clientv3.Config{
			Endpoints:   s.Options.Endpoints,
			Username:    s.Options.Username,
			Password:    s.Options.Password,
			DialTimeout: s.Options.DialTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create etcd client: %w", err)
		}
		defer c.Close()
		cli = c
	}

	timeout := s.Options.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	prefix := s.Options.Prefix
	if prefix == "" {
		prefix = "/"
	}

	resp, err := cli.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to get config from etcd: %w", err)
	}

	result := make(map[string]any)
	for _, kv := range resp.Kvs {
		putEtcdValue(result, s.Options.Prefix, string(kv.Key), kv.Value)
	}
	return result, nil
}

// putEtcdValue 把一个 etcd 键值写入配置树
func putEtcdValue(result map[string]any, prefix, key string, raw []byte) {
	if prefix != "" {
		key = strings.TrimPrefix(key, prefix)
	}
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return
	}
	key = strings.ReplaceAll(key, "/", ":")

	var value any
	if err := json.Unmarshal(raw, &value); err == nil {
		setNestedValue(result, key, value)
		return
	}
	if err := yaml.Unmarshal(raw, &value); err == nil && value != nil {
		setNestedValue(result, key, value)
		return
	}
	setNestedValue(result, key, string(raw))
}
