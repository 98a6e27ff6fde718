package config

import (
	"strings"
	"sync"
	"sync/atomic"
)

// snapshot 保存最近一次加载的配置数据。读取无锁，重新加载时整体替换
type snapshot struct {
	data atomic.Pointer[map[string]any]
}

func newSnapshot() *snapshot {
	s := &snapshot{}
	s.store(make(map[string]any))
	return s
}

func (s *snapshot) load() map[string]any {
	return *s.data.Load()
}

func (s *snapshot) store(data map[string]any) {
	s.data.Store(&data)
}

// pathSegments 缓存解析过的配置路径
var pathSegments sync.Map

// splitPath 按 ":" 或 "." 拆分路径，忽略空段："a:b.c" -> [a b c]
func splitPath(path string) []string {
	if v, ok := pathSegments.Load(path); ok {
		return v.([]string)
	}
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == ':' || r == '.'
	})
	pathSegments.Store(path, parts)
	return parts
}
