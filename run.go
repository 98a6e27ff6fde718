package feather

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gocrud/feather/logging"
)

// Run 启动应用并阻塞，直到收到退出信号、ctx 被取消或调用 Shutdown，
// 然后在 ShutdownTimeout 内优雅关闭。
func (a *Application) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		// 启动失败时仍然释放已经创建的单例
		return errors.Join(err, a.Stop(context.Background()))
	}

	// 支持 OS 信号 (Ctrl+C, kill) 和内部触发的退出 (Shutdown)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		a.logger.Info("received shutdown signal", logging.Field{Key: "signal", Value: sig.String()})
	case <-a.stopCh:
		a.logger.Info("application shutdown requested")
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout)
	defer cancel()

	return a.Stop(shutdownCtx)
}

// Shutdown 请求 Run 返回，可以多次调用
func (a *Application) Shutdown() {
	a.stopOnce.Do(func() { close(a.stopCh) })
}
