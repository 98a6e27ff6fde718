package di

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type baseTarget struct {
	Hello string `inject:"hello"`
	plain *Plain `inject:""`
}

type Target struct {
	baseTarget
	Bye       string                 `inject:"bye"`
	Primary   Tagged[Store, Primary] `inject:""`
	Lazy      Provider[*Shared]      `inject:""`
	shared    *Shared                `inject:""`
	Untouched string
	Skipped   *Plain
}

func TestInjectFields(t *testing.T) {
	inj, err := New(StoreModule{}, Constructors(NewShared))
	require.NoError(t, err)

	target := &Target{Untouched: "keep"}
	require.NoError(t, inj.InjectFields(target))

	assert.Equal(t, "hello", target.Hello)
	assert.NotNil(t, target.plain)
	assert.Equal(t, "bye", target.Bye)
	assert.Equal(t, "primary", target.Primary.Value.Name())
	assert.Equal(t, "keep", target.Untouched)
	assert.Nil(t, target.Skipped)

	require.NotNil(t, target.shared)
	lazy, err := target.Lazy.Get()
	require.NoError(t, err)
	assert.Same(t, target.shared, lazy)

	// 字段列表按类型缓存
	cached, ok := inj.fields.Load(reflect.TypeOf(Target{}))
	require.True(t, ok)
	assert.Len(t, cached.([]injectField), 6)

	other := &Target{}
	require.NoError(t, inj.InjectFields(other))
	assert.Same(t, target.shared, other.shared)
	assert.NotSame(t, target.plain, other.plain)
}

func TestInjectFieldsErrors(t *testing.T) {
	inj, err := New()
	require.NoError(t, err)

	var fie *FieldInjectionError
	for _, target := range []any{nil, Target{}, (*Target)(nil), new(int)} {
		err := inj.InjectFields(target)
		assert.ErrorAs(t, err, &fie, "%T", target)
	}

	// 依赖无法解析时报告字段与所在结构体
	type needsStore struct {
		Store Store `inject:""`
	}
	err = inj.InjectFields(&needsStore{})
	require.ErrorAs(t, err, &fie)
	assert.Equal(t, "Store", fie.Field)
	assert.Equal(t, reflect.TypeOf(needsStore{}), fie.Type)
	var nuc *NoUsableConstructorError
	assert.ErrorAs(t, err, &nuc)

	// 嵌入结构体中的字段报告声明它的结构体
	err = inj.InjectFields(&Target{})
	require.ErrorAs(t, err, &fie)
	assert.Equal(t, "Hello", fie.Field)
	assert.Equal(t, reflect.TypeOf(baseTarget{}), fie.Type)
}

func TestGraphObjectsAreNotFieldInjected(t *testing.T) {
	inj, err := New(StoreModule{}, Constructors(NewShared))
	require.NoError(t, err)

	target, err := Get[*Target](inj)
	require.NoError(t, err)
	assert.Empty(t, target.Hello)
	assert.Nil(t, target.shared)
}
