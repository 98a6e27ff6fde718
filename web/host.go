package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/feather/logging"
)

// Host Web 主机。由注入器作为单例管理，注入器关闭时优雅停止
type Host struct {
	engine  *gin.Engine
	server  *http.Server
	logger  logging.Logger
	timeout time.Duration

	mu      sync.Mutex
	addr    string
	serving chan struct{}
	stopped bool
}

// NewHost 创建 Web 主机
func NewHost(engine *gin.Engine, logger logging.Logger, opts Options) *Host {
	return &Host{
		engine:  engine,
		logger:  logger,
		timeout: opts.ShutdownTimeout.Std(),
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", opts.Port),
			Handler: engine,
		},
	}
}

// Engine 获取 Gin 引擎
func (h *Host) Engine() *gin.Engine {
	return h.engine
}

// Address 获取监听地址 (e.g., "[::]:50234")，仅在 Start 后有效
func (h *Host) Address() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addr
}

// Start 同步监听端口，然后在后台处理请求。Host 实现 hosting.HostedService
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.serving != nil {
		return fmt.Errorf("web: host already started")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", h.server.Addr)
	if err != nil {
		return fmt.Errorf("web: failed to listen on %s: %w", h.server.Addr, err)
	}
	h.addr = ln.Addr().String()
	h.serving = make(chan struct{})

	h.logger.Info("web host started", logging.Field{Key: "address", Value: h.addr})

	go func(done chan struct{}) {
		defer close(done)
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("web host error", logging.Field{Key: "error", Value: err.Error()})
		}
	}(h.serving)
	return nil
}

// Stop 停止 Web 主机，等待处理中的请求结束
func (h *Host) Stop(ctx context.Context) error {
	h.mu.Lock()
	serving := h.serving
	if serving == nil || h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	h.mu.Unlock()

	h.logger.Info("stopping web host")
	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Error("failed to shutdown web host gracefully",
			logging.Field{Key: "error", Value: err.Error()})
		return err
	}
	<-serving

	h.logger.Info("web host stopped")
	return nil
}

// Dispose 在注入器关闭时调用，超时取 ShutdownTimeout
func (h *Host) Dispose(ctx context.Context) error {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	return h.Stop(ctx)
}
