package di_test

import (
	"context"
	"testing"

	"github.com/gocrud/feather/di"
)

// 基准测试接口和实现
type BenchLogger interface {
	Log(msg string)
}

type BenchConsoleLogger struct{}

func (l *BenchConsoleLogger) Log(msg string) {}

type BenchDatabase interface {
	Query(sql string) error
}

type BenchMySQLDB struct{}

func (db *BenchMySQLDB) Query(sql string) error { return nil }

type BenchCache interface {
	Get(key string) string
	Set(key, value string)
}

type BenchRedisCache struct{}

func (c *BenchRedisCache) Get(key string) string { return "" }
func (c *BenchRedisCache) Set(key, value string) {}

// 复杂服务（多层依赖）
type BenchRepository struct {
	Database BenchDatabase
	Cache    BenchCache
	Logger   BenchLogger
}

func NewBenchRepository(db BenchDatabase, cache BenchCache, logger BenchLogger) *BenchRepository {
	return &BenchRepository{Database: db, Cache: cache, Logger: logger}
}

type BenchBusinessService struct {
	Repo   *BenchRepository
	Logger BenchLogger
}

func NewBenchBusinessService(repo *BenchRepository, logger BenchLogger) *BenchBusinessService {
	return &BenchBusinessService{Repo: repo, Logger: logger}
}

type BenchFieldTarget struct {
	Service *BenchBusinessService `inject:""`
	Logger  BenchLogger           `inject:""`
}

// BenchModule 基础设施都是单例
type BenchModule struct{}

func (BenchModule) ProvideLogger() BenchLogger { return &BenchConsoleLogger{} }
func (BenchModule) ProvideDatabase() BenchDatabase { return &BenchMySQLDB{} }
func (BenchModule) ProvideCache() BenchCache { return &BenchRedisCache{} }

func (BenchModule) Annotate() di.Annotations {
	return di.Annotations{
		"ProvideLogger":   {di.WithSingleton()},
		"ProvideDatabase": {di.WithSingleton()},
		"ProvideCache":    {di.WithSingleton()},
	}
}

func newBenchInjector(b *testing.B) *di.Injector {
	b.Helper()
	inj, err := di.New(BenchModule{}, di.Constructors(NewBenchRepository, NewBenchBusinessService))
	if err != nil {
		b.Fatal(err)
	}
	return inj
}

// BenchmarkNew 测试注入器创建性能
func BenchmarkNew(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		inj := newBenchInjector(b)
		_ = inj.Close(context.Background())
	}
}

// BenchmarkGetSingleton 测试已缓存单例的获取性能
func BenchmarkGetSingleton(b *testing.B) {
	inj := newBenchInjector(b)
	di.MustGet[BenchLogger](inj)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = di.Get[BenchLogger](inj)
	}
}

// BenchmarkGetTransientGraph 测试多层 transient 依赖的构造性能
func BenchmarkGetTransientGraph(b *testing.B) {
	inj := newBenchInjector(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = di.Get[*BenchBusinessService](inj)
	}
}

// BenchmarkGetSingletonParallel 测试并发读取单例
func BenchmarkGetSingletonParallel(b *testing.B) {
	inj := newBenchInjector(b)
	di.MustGet[BenchCache](inj)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = di.Get[BenchCache](inj)
		}
	})
}

// BenchmarkProviderGet 测试延迟句柄
func BenchmarkProviderGet(b *testing.B) {
	inj := newBenchInjector(b)
	p := di.ProviderOf[*BenchRepository](inj)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = p.Get()
	}
}

// BenchmarkInjectFields 测试字段注入（字段列表已缓存）
func BenchmarkInjectFields(b *testing.B) {
	inj := newBenchInjector(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var target BenchFieldTarget
		_ = inj.InjectFields(&target)
	}
}
