package config

import (
	"encoding/json"
	"time"
)

// Duration 可以从 "5s" 形式的字符串或秒数绑定的时长
type Duration time.Duration

// UnmarshalJSON 实现 json.Unmarshaler
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalJSON 输出 "1m30s" 形式的字符串
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std 转换为 time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
