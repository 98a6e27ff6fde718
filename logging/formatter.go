package logging

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"
)

// Formatter 把一条日志编码为一行输出
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

// LogEntry 日志条目
type LogEntry struct {
	Time     time.Time
	Level    LogLevel
	Category string
	Message  string
	Fields   []Field
}

// 超过这个大小的 buffer 不放回池中
const maxPooledBuffer = 64 << 10

var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

func getBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

func putBuffer(b *bytes.Buffer) {
	if b.Cap() > maxPooledBuffer {
		return
	}
	b.Reset()
	bufferPool.Put(b)
}

// JsonFormatter 每条日志编码为一个 JSON 对象（不带换行）
//
//	{"time":"...","level":"INFO","category":"di","msg":"...","fields":{"key":"*app.Service"}}
type JsonFormatter struct {
	TimestampFormat string
}

// NewJsonFormatter 创建 JSON 格式化器
func NewJsonFormatter() *JsonFormatter {
	return &JsonFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

type jsonEntry struct {
	Time     string         `json:"time"`
	Level    string         `json:"level"`
	Category string         `json:"category,omitempty"`
	Message  string         `json:"msg"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// Format 格式化日志。error 类型的字段值按 Error() 输出
func (f *JsonFormatter) Format(entry *LogEntry) ([]byte, error) {
	e := jsonEntry{
		Time:     entry.Time.Format(f.TimestampFormat),
		Level:    entry.Level.String(),
		Category: entry.Category,
		Message:  entry.Message,
	}
	if len(entry.Fields) > 0 {
		e.Fields = make(map[string]any, len(entry.Fields))
		for _, field := range entry.Fields {
			if err, ok := field.Value.(error); ok {
				e.Fields[field.Key] = err.Error()
				continue
			}
			e.Fields[field.Key] = field.Value
		}
	}

	buffer := getBuffer()
	defer putBuffer(buffer)

	enc := json.NewEncoder(buffer)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return nil, err
	}

	// Encode 会追加换行
	out := bytes.TrimSuffix(buffer.Bytes(), []byte{'\n'})
	result := make([]byte, len(out))
	copy(result, out)
	return result, nil
}
