package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// entryWriter 接收格式化前的日志条目
type entryWriter interface {
	WriteLog(entry *LogEntry)
}

// syncWriter 在调用方 goroutine 中格式化并写入
type syncWriter struct {
	out       io.Writer
	formatter Formatter
	mu        sync.Mutex
}

func newSyncWriter(out io.Writer, formatter Formatter) *syncWriter {
	return &syncWriter{out: out, formatter: formatter}
}

func (w *syncWriter) WriteLog(entry *LogEntry) {
	data, err := w.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: format error: %v\n", err)
		return
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.out.Write(data)
}

// levelVar 提供者与其创建的 logger 共享的最小级别
type levelVar struct {
	v atomic.Int32
}

func newLevelVar(level LogLevel) *levelVar {
	lv := &levelVar{}
	lv.set(level)
	return lv
}

func (lv *levelVar) get() LogLevel { return LogLevel(lv.v.Load()) }
func (lv *levelVar) set(level LogLevel) { lv.v.Store(int32(level)) }

// writerLogger 是控制台与文件日志共用的实现
type writerLogger struct {
	category string
	level    *levelVar
	out      entryWriter
	fields   []Field
}

func (l *writerLogger) Trace(msg string, fields ...Field) {
	l.Log(LogLevelTrace, msg, fields...)
}

func (l *writerLogger) Debug(msg string, fields ...Field) {
	l.Log(LogLevelDebug, msg, fields...)
}

func (l *writerLogger) Info(msg string, fields ...Field) {
	l.Log(LogLevelInfo, msg, fields...)
}

func (l *writerLogger) Warn(msg string, fields ...Field) {
	l.Log(LogLevelWarn, msg, fields...)
}

func (l *writerLogger) Error(msg string, fields ...Field) {
	l.Log(LogLevelError, msg, fields...)
}

func (l *writerLogger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	os.Exit(1)
}

func (l *writerLogger) Log(level LogLevel, msg string, fields ...Field) {
	if level < l.level.get() {
		return
	}

	l.out.WriteLog(&LogEntry{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Message:  msg,
		Fields:   joinFields(l.fields, fields),
	})
}

func (l *writerLogger) WithFields(fields ...Field) Logger {
	return &writerLogger{
		category: l.category,
		level:    l.level,
		out:      l.out,
		fields:   joinFields(l.fields, fields),
	}
}

func (l *writerLogger) WithCategory(category string) Logger {
	return &writerLogger{
		category: category,
		level:    l.level,
		out:      l.out,
		fields:   l.fields,
	}
}
