package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gocrud/feather/logging"
)

// FileWatcher 监听配置文件，文件写入或重新创建时重新加载配置。
// 实现 hosting.HostedService，可以作为托管服务随应用启停。
type FileWatcher struct {
	cfg    Reloadable
	files  map[string]bool
	dirs   []string
	logger logging.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileWatcher 创建文件监听器，cfg 必须由 ConfigurationBuilder 构建
func NewFileWatcher(cfg Configuration, logger logging.Logger, paths ...string) (*FileWatcher, error) {
	rc, ok := cfg.(Reloadable)
	if !ok {
		return nil, fmt.Errorf("config: %T does not support reload", cfg)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	w := &FileWatcher{
		cfg:    rc,
		files:  make(map[string]bool, len(paths)),
		logger: logger,
	}
	seen := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("config: watch %s: %w", p, err)
		}
		w.files[abs] = true
		// 编辑器常以替换文件的方式保存，所以监听所在目录
		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// Start 开始监听
func (w *FileWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		return fmt.Errorf("config: file watcher already started")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: failed to create file watcher: %w", err)
	}
	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("config: failed to watch %s: %w", dir, err)
		}
	}

	w.watcher = watcher
	w.done = make(chan struct{})
	go w.loop(watcher, w.done)

	w.logger.Info("configuration watch started", logging.Field{Key: "files", Value: len(w.files)})
	return nil
}

func (w *FileWatcher) loop(watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || !w.files[name] {
				continue
			}
			if err := w.cfg.Reload(); err != nil {
				w.logger.Error("Failed to reload configuration",
					logging.Field{Key: "file", Value: name},
					logging.Field{Key: "error", Value: err.Error()})
				continue
			}
			w.logger.Info("Configuration reloaded successfully", logging.Field{Key: "file", Value: name})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("configuration watch error", logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

// Stop 停止监听
func (w *FileWatcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	watcher, done := w.watcher, w.done
	w.watcher = nil
	w.mu.Unlock()

	if watcher == nil {
		return nil
	}
	if err := watcher.Close(); err != nil {
		return err
	}

	select {
	case <-done:
		w.logger.Info("configuration watch stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
