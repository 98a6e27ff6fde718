package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// AsyncWriter 异步日志写入器：条目进入有界队列，由后台 goroutine 格式化并写出
type AsyncWriter struct {
	writer     io.Writer
	formatter  Formatter
	entryCh    chan *LogEntry
	wg         sync.WaitGroup
	mu         sync.RWMutex // 保护 closed 与 entryCh 的关闭
	closed     bool
	errHandler func(error)
}

// NewAsyncWriter 创建新的异步写入器
func NewAsyncWriter(writer io.Writer, formatter Formatter, bufferSize int) *AsyncWriter {
	w := &AsyncWriter{
		writer:    writer,
		formatter: formatter,
		entryCh:   make(chan *LogEntry, bufferSize),
	}

	w.wg.Add(1)
	go w.process()

	return w
}

// WriteLog 写入日志条目。队列满时阻塞，不丢日志；关闭后的条目被丢弃
func (w *AsyncWriter) WriteLog(entry *LogEntry) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	w.entryCh <- entry
}

// Close 停止接收新条目，并等待队列中的条目写完
func (w *AsyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.entryCh)
	}
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

func (w *AsyncWriter) process() {
	defer w.wg.Done()

	for entry := range w.entryCh {
		data, err := w.formatter.Format(entry)
		if err != nil {
			w.handleError(fmt.Errorf("format: %w", err))
			continue
		}

		// JsonFormatter 的输出不带换行
		if len(data) > 0 && data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		if _, err := w.writer.Write(data); err != nil {
			w.handleError(fmt.Errorf("write: %w", err))
		}
	}
}

func (w *AsyncWriter) handleError(err error) {
	if w.errHandler != nil {
		w.errHandler(err)
		return
	}
	fmt.Fprintf(os.Stderr, "logging: async writer %v\n", err)
}

// SetErrorHandler 设置错误处理函数，需在写入前调用
func (w *AsyncWriter) SetErrorHandler(handler func(error)) {
	w.errHandler = handler
}
