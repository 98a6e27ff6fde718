package logging

import (
	"io"
	"os"
)

// ConsoleLoggerOptions 控制台日志选项
type ConsoleLoggerOptions struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
	// Json 为 true 时每行输出一个 JSON 对象
	Json   bool
	Output io.Writer
}

// ConsoleLoggerProvider 控制台日志提供者
type ConsoleLoggerProvider struct {
	level *levelVar
	out   entryWriter
}

// NewConsoleLoggerProvider 创建控制台日志提供者，默认输出到 os.Stdout
func NewConsoleLoggerProvider(options ConsoleLoggerOptions) *ConsoleLoggerProvider {
	if options.Output == nil {
		options.Output = os.Stdout
	}

	var formatter Formatter
	if options.Json {
		jf := NewJsonFormatter()
		if options.TimestampFormat != "" {
			jf.TimestampFormat = options.TimestampFormat
		}
		formatter = jf
	} else {
		formatter = &TextFormatter{
			IncludeTimestamp: options.IncludeTimestamp,
			TimestampFormat:  options.TimestampFormat,
			ColorOutput:      options.ColorOutput,
		}
	}

	return &ConsoleLoggerProvider{
		level: newLevelVar(LogLevelInfo),
		out:   newSyncWriter(options.Output, formatter),
	}
}

func (p *ConsoleLoggerProvider) CreateLogger(category string) Logger {
	return &writerLogger{category: category, level: p.level, out: p.out}
}

func (p *ConsoleLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.level.set(level)
}
