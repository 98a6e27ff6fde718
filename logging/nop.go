package logging

// nopLogger 丢弃所有日志
type nopLogger struct{}

// NewNopLogger 返回不输出任何内容的 Logger
func NewNopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) Trace(string, ...Field) {}
func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field) {}
func (nopLogger) Warn(string, ...Field) {}
func (nopLogger) Error(string, ...Field) {}
func (nopLogger) Fatal(string, ...Field) {}
func (nopLogger) Log(LogLevel, string, ...Field) {}
func (n nopLogger) WithFields(...Field) Logger { return n }
func (n nopLogger) WithCategory(string) Logger { return n }
