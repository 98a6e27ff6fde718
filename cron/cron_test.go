package cron_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocrud/feather/config"
	"github.com/gocrud/feather/cron"
	"github.com/gocrud/feather/di"
	"github.com/gocrud/feather/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Counter 被定时任务注入的单例
type Counter struct {
	di.Singleton
	runs atomic.Int32
}

// Unresolvable 没有可用的构造方式
type Unresolvable interface {
	Do()
}

func newConfig(t *testing.T, data map[string]any) config.Configuration {
	t.Helper()
	cfg, err := config.NewConfigurationBuilder().AddInMemory(data).Build()
	require.NoError(t, err)
	return cfg
}

func TestSchedulerRunsInjectedJob(t *testing.T) {
	out := &lockedBuffer{}
	factory := logging.NewLoggingBuilder().
		AddConsole(logging.ConsoleLoggerOptions{Output: out}).
		Build()

	module, err := cron.NewModule(newConfig(t, map[string]any{
		"cron": map[string]any{"seconds": true, "location": "UTC"},
	}))
	require.NoError(t, err)

	done := make(chan struct{})
	var once sync.Once
	module.AddJob("* * * * * *", "count", func(c *Counter) {
		if c.runs.Add(1) == 1 {
			once.Do(func() { close(done) })
		}
	})
	module.AddJob("* * * * * *", "failing", func() error {
		return errors.New("boom")
	})

	inj, err := di.New(logging.NewModule(factory), module)
	require.NoError(t, err)

	scheduler, err := di.Get[*cron.Scheduler](inj)
	require.NoError(t, err)
	assert.Equal(t, []string{"count", "failing"}, scheduler.Jobs())

	require.NoError(t, scheduler.Start(context.Background()))
	require.NoError(t, scheduler.Start(context.Background()))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}

	counter, err := di.Get[*Counter](inj)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, counter.runs.Load(), int32(1))

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("boom"))
	}, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, inj.Close(ctx))
}

func TestSchedulerAddJobErrors(t *testing.T) {
	inj, err := di.New(logging.NewModule(logging.NewLoggingBuilder().Build()))
	require.NoError(t, err)

	s, err := cron.NewScheduler(inj, logging.NewNopLogger(), cron.DefaultOptions())
	require.NoError(t, err)

	assert.ErrorContains(t, s.AddJob("* * * * *", "not-func", 42), "must be a function")
	assert.ErrorContains(t, s.AddJob("* * * * *", "bad-return", func() int { return 0 }), "must return nothing or error")
	assert.ErrorContains(t, s.AddJob("not a spec", "bad-spec", func() {}), "failed to add cron job")

	err = s.AddJob("* * * * *", "unresolvable", func(Unresolvable) {})
	var nuc *di.NoUsableConstructorError
	assert.ErrorAs(t, err, &nuc)

	require.NoError(t, s.AddJob("@every 1h", "hourly", func() {}))
	assert.ErrorContains(t, s.AddJob("@every 1h", "hourly", func() {}), "already registered")

	assert.True(t, s.Remove("hourly"))
	assert.False(t, s.Remove("hourly"))
	assert.Empty(t, s.Jobs())

	// 未启动时 Stop 直接返回
	require.NoError(t, s.Stop(context.Background()))
}

func TestModuleRejectsInvalidJob(t *testing.T) {
	module, err := cron.NewModule(newConfig(t, map[string]any{}))
	require.NoError(t, err)
	module.AddJob("* * * * *", "broken", func(Unresolvable) {})

	inj, err := di.New(logging.NewModule(nil), module)
	require.NoError(t, err)

	_, err = di.Get[*cron.Scheduler](inj)
	var ie *di.InstantiationError
	require.ErrorAs(t, err, &ie)
	assert.Contains(t, err.Error(), "broken")
}

func TestLoadOptions(t *testing.T) {
	opts, err := cron.LoadOptions(newConfig(t, map[string]any{}))
	require.NoError(t, err)
	assert.Equal(t, cron.DefaultOptions(), opts)

	opts, err = cron.LoadOptions(newConfig(t, map[string]any{
		"cron": map[string]any{"seconds": true},
	}))
	require.NoError(t, err)
	assert.True(t, opts.Seconds)
	assert.Equal(t, "UTC", opts.Location)

	_, err = cron.LoadOptions(newConfig(t, map[string]any{
		"cron": map[string]any{"location": "Nowhere/Invalid"},
	}))
	assert.ErrorContains(t, err, "invalid cron location")
}
