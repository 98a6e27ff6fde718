package logging

import (
	"fmt"
	"os"
	"sync"
)

// FileLoggerOptions 文件日志选项
type FileLoggerOptions struct {
	Path string
	// Json 为 true 时每行写一个 JSON 对象
	Json bool
	// BufferSize 异步写入队列长度，默认 1024
	BufferSize int
}

// FileLoggerProvider 文件日志提供者。日志通过 AsyncWriter 在后台写入，
// Close 会等待队列写完并关闭文件。
type FileLoggerProvider struct {
	options FileLoggerOptions
	level   *levelVar

	mu     sync.Mutex
	file   *os.File
	writer *AsyncWriter
}

// NewFileLoggerProvider 创建文件日志提供者，文件在第一次创建 logger 时打开
func NewFileLoggerProvider(options FileLoggerOptions) *FileLoggerProvider {
	if options.BufferSize <= 0 {
		options.BufferSize = 1024
	}
	return &FileLoggerProvider{
		options: options,
		level:   newLevelVar(LogLevelInfo),
	}
}

func (p *FileLoggerProvider) CreateLogger(category string) Logger {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer == nil {
		file, err := os.OpenFile(p.options.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logging: failed to open log file: %v\n", err)
			return &writerLogger{category: category, level: p.level, out: newSyncWriter(os.Stderr, NewTextFormatter())}
		}

		var formatter Formatter = NewTextFormatter()
		if p.options.Json {
			formatter = NewJsonFormatter()
		}
		p.file = file
		p.writer = NewAsyncWriter(file, formatter, p.options.BufferSize)
	}

	return &writerLogger{category: category, level: p.level, out: p.writer}
}

func (p *FileLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.level.set(level)
}

// Close 刷新未写完的日志并关闭文件
func (p *FileLoggerProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer == nil {
		return nil
	}
	p.writer.Close()
	err := p.file.Close()
	p.writer, p.file = nil, nil
	return err
}
