package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestKeyEqualityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.String().Draw(t, "a")
		b := rapid.String().Draw(t, "b")

		ka := QualifiedKeyOf[string](Named(a))
		kb := QualifiedKeyOf[string](Named(b))
		if (ka == kb) != (a == b) {
			t.Fatalf("key equality for %q and %q: %v", a, b, ka == kb)
		}

		// 类型不同或者限定符种类不同时一定不相等
		if ka == QualifiedKeyOf[int](Named(a)) {
			t.Fatalf("keys of different types are equal")
		}
		if ka == KeyOf[string]() {
			t.Fatalf("qualified key equals unqualified key")
		}
		if QualifiedKeyOf[string](Marker[Primary]()) == QualifiedKeyOf[string](Marker[Replica]()) {
			t.Fatalf("different markers are equal")
		}

		m := map[Key]string{ka: a}
		got, ok := m[QualifiedKeyOf[string](Named(a))]
		if !ok || got != a {
			t.Fatalf("key lookup failed for %q", a)
		}
	})
}

func TestScopeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 20).Draw(t, "n")
		viaHandle := rapid.Bool().Draw(t, "viaHandle")

		var transientCreated, singletonCreated int
		inj, err := New(Constructors(
			func() *Plain {
				transientCreated++
				return &Plain{ID: transientCreated}
			},
			func() *Shared {
				singletonCreated++
				return &Shared{ID: int64(singletonCreated)}
			},
		))
		if err != nil {
			t.Fatal(err)
		}

		get := func(key Key) any {
			if viaHandle {
				h, err := inj.Resolve(key)
				if err != nil {
					t.Fatal(err)
				}
				v, err := h.Get()
				if err != nil {
					t.Fatal(err)
				}
				return v
			}
			v, err := inj.Get(key)
			if err != nil {
				t.Fatal(err)
			}
			return v
		}

		seen := make(map[*Plain]bool)
		var shared *Shared
		for i := 0; i < n; i++ {
			seen[get(KeyOf[*Plain]()).(*Plain)] = true
			s := get(KeyOf[*Shared]()).(*Shared)
			if shared != nil && s != shared {
				t.Fatalf("singleton returned a different instance on call %d", i)
			}
			shared = s
		}

		if len(seen) != n || transientCreated != n {
			t.Fatalf("expected %d transient instances, got %d (created %d)", n, len(seen), transientCreated)
		}
		if singletonCreated != 1 {
			t.Fatalf("singleton created %d times", singletonCreated)
		}
	})
}

// 四个可释放的单例，用于验证释放顺序
type disposableA struct {
	Singleton
	log *disposeLog
}
type disposableB disposableA
type disposableC disposableA
type disposableD disposableA

func (d *disposableA) Close() error {
	d.log.add("a")
	return nil
}

func (d *disposableB) Close() error {
	d.log.add("b")
	return nil
}

func (d *disposableC) Close() error {
	d.log.add("c")
	return nil
}

func (d *disposableD) Close() error {
	d.log.add("d")
	return nil
}

type disposableModule struct {
	log *disposeLog
}

func (m disposableModule) ProvideA() *disposableA { return &disposableA{log: m.log} }
func (m disposableModule) ProvideB() *disposableB { return &disposableB{log: m.log} }
func (m disposableModule) ProvideC() *disposableC { return &disposableC{log: m.log} }
func (m disposableModule) ProvideD() *disposableD { return &disposableD{log: m.log} }

func TestDisposeOrderProperty(t *testing.T) {
	keys := map[string]Key{
		"a": KeyOf[*disposableA](),
		"b": KeyOf[*disposableB](),
		"c": KeyOf[*disposableC](),
		"d": KeyOf[*disposableD](),
	}

	rapid.Check(t, func(t *rapid.T) {
		perm := rapid.Permutation([]string{"a", "b", "c", "d"}).Draw(t, "perm")
		names := perm[:rapid.IntRange(0, len(perm)).Draw(t, "n")]

		log := &disposeLog{}
		inj, err := New(disposableModule{log: log})
		require.NoError(t, err)

		for _, name := range names {
			_, err := inj.Get(keys[name])
			require.NoError(t, err)
			// 重复获取不改变创建顺序
			_, err = inj.Get(keys[name])
			require.NoError(t, err)
		}
		require.NoError(t, inj.Close(context.Background()))

		var want []string
		for i := len(names) - 1; i >= 0; i-- {
			want = append(want, names[i])
		}
		assert.Equal(t, want, log.order)
	})
}
