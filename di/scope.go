package di

import (
	"context"
	"sync/atomic"
)

type instance struct {
	val any
}

// singletonCell 保存单例实例，每个 Key 一个，跨 binding 共享
type singletonCell struct {
	val   atomic.Pointer[instance] // 尚未创建时为 nil
	owner *frame                   // 正在填充的 frame，由 Injector.fillMu 保护
}

// frame 记录调用路径上一次进行中的实例化。单例填充时它同时是 cell 的持有者。
type frame struct {
	key      Key
	parent   *frame
	done     chan struct{} // 仅单例填充，填充结束时关闭
	finished atomic.Bool
	waiting  *frame // 所在路径正在等待的填充，由 Injector.fillMu 保护
}

type frameKey struct{}

func withFrame(ctx context.Context, f *frame) context.Context {
	return context.WithValue(ctx, frameKey{}, f)
}

func frameFrom(ctx context.Context) *frame {
	f, _ := ctx.Value(frameKey{}).(*frame)
	return f
}

// path 返回仍在进行的祖先 frame（含自身），从外到内
func (f *frame) path() []*frame {
	var out []*frame
	for x := f; x != nil; x = x.parent {
		if !x.finished.Load() {
			out = append(out, x)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// fill 返回单例实例，必要时创建。created 表示本次调用完成了填充。
//
// 创建失败不缓存，后续调用会重新尝试。同一 Key 的并发请求等待正在进行的填充；
// 如果等待会回到调用路径自身（经由延迟句柄重入，或两条路径交叉等待），
// 返回 CircularDependencyError 而不是阻塞。
func (inj *Injector) fill(ctx context.Context, b *binding) (val any, created bool, err error) {
	cell := b.cell
	if inst := cell.val.Load(); inst != nil {
		return inst.val, false, nil
	}

	caller := frameFrom(ctx)
	for {
		inj.fillMu.Lock()
		if inst := cell.val.Load(); inst != nil {
			inj.fillMu.Unlock()
			return inst.val, false, nil
		}

		owner := cell.owner
		if owner == nil {
			f := &frame{key: b.key, parent: caller, done: make(chan struct{})}
			cell.owner = f
			inj.fillMu.Unlock()
			return inj.runFill(ctx, b, f)
		}

		path := caller.path()
		if chain := waitChain(path, owner); chain != nil {
			inj.fillMu.Unlock()
			return nil, false, &CircularDependencyError{Chain: chain}
		}
		for _, f := range path {
			f.waiting = owner
		}
		inj.fillMu.Unlock()

		select {
		case <-owner.done:
		case <-ctx.Done():
			err = ctx.Err()
		}

		inj.fillMu.Lock()
		for _, f := range path {
			if f.waiting == owner {
				f.waiting = nil
			}
		}
		inj.fillMu.Unlock()
		if err != nil {
			return nil, false, err
		}
	}
}

// runFill 以 f 的身份创建实例并释放 cell
func (inj *Injector) runFill(ctx context.Context, b *binding, f *frame) (any, bool, error) {
	var stored *instance
	defer func() {
		inj.fillMu.Lock()
		if stored != nil {
			b.cell.val.Store(stored)
		}
		b.cell.owner = nil
		inj.fillMu.Unlock()
		close(f.done)
	}()

	val, err := inj.instantiate(ctx, b, f)
	if err != nil {
		return nil, false, err
	}
	stored = &instance{val: val}
	return val, true, nil
}

// waitChain 沿等待关系从 owner 出发，回到 path 上时返回形成的环
func waitChain(path []*frame, owner *frame) []Key {
	onPath := make(map[*frame]bool, len(path))
	chain := make([]Key, 0, len(path)+2)
	for _, f := range path {
		onPath[f] = true
		chain = append(chain, f.key)
	}

	seen := make(map[*frame]bool)
	for x := owner; x != nil && !seen[x]; x = x.waiting {
		seen[x] = true
		chain = append(chain, x.key)
		if onPath[x] {
			return chain
		}
	}
	return nil
}

// resetCells 清空所有缓存的单例
func (inj *Injector) resetCells() {
	inj.fillMu.Lock()
	defer inj.fillMu.Unlock()
	inj.cells.Range(func(_, cell any) bool {
		cell.(*singletonCell).val.Store(nil)
		return true
	})
}
