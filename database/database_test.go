package database_test

import (
	"context"
	"testing"

	"github.com/gocrud/feather/config"
	"github.com/gocrud/feather/database"
	"github.com/gocrud/feather/di"
	"github.com/gocrud/feather/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name string
}

// UserRepository 通过构造函数注入默认数据库
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(name string) error {
	return r.db.Create(&User{Name: name}).Error
}

func (r *UserRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&User{}).Count(&n).Error
	return n, err
}

func TestDatabaseModule(t *testing.T) {
	cfg, err := config.NewConfigurationBuilder().AddInMemory(map[string]any{
		"database": map[string]any{
			"default": map[string]any{
				"dsn":          "file::memory:?cache=shared",
				"maxOpenConns": 5,
			},
		},
	}).Build()
	require.NoError(t, err)

	module, err := database.NewModule(cfg)
	require.NoError(t, err)

	inj, err := di.New(
		logging.NewModule(logging.NewLoggingBuilder().Build()),
		module.WithModels(&User{}),
		di.Constructors(NewUserRepository),
	)
	require.NoError(t, err)

	repo, err := di.Get[*UserRepository](inj)
	require.NoError(t, err)
	require.NoError(t, repo.Create("test"))

	n, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	db, err := di.Get[*gorm.DB](inj)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 5, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, inj.Close(context.Background()))
	assert.Error(t, sqlDB.Ping())
}

func TestDatabaseOptionsErrors(t *testing.T) {
	cfg, err := config.NewConfigurationBuilder().AddInMemory(map[string]any{
		"database": map[string]any{
			"default": map[string]any{"driver": "oracle", "dsn": "x"},
		},
	}).Build()
	require.NoError(t, err)

	_, err = database.NewModule(cfg)
	assert.ErrorContains(t, err, "unsupported database driver")

	cfg, err = config.NewConfigurationBuilder().AddInMemory(map[string]any{
		"database": map[string]any{"default": map[string]any{}},
	}).Build()
	require.NoError(t, err)

	_, err = database.NewModule(cfg)
	assert.ErrorContains(t, err, "dsn is required")
}

func TestFactoryDuplicate(t *testing.T) {
	f := database.NewFactory()
	opts := database.DefaultOptions()
	opts.DSN = "file::memory:"

	require.NoError(t, f.Open("a", opts))
	assert.ErrorContains(t, f.Open("a", opts), "already registered")
	assert.Equal(t, []string{"a"}, f.Names())
	assert.NoError(t, f.Close())
}
