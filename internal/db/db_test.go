package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"recipeapi/internal/config"
	"recipeapi/internal/model"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "")
	assert.Error(t, err)
}

func TestOpenMigrateReset_SQLite(t *testing.T) {
	gdb, err := Open(config.DriverSQLite, ":memory:")
	require.NoError(t, err)

	require.NoError(t, WaitForDB(context.Background(), gdb, 3, time.Millisecond))
	require.NoError(t, Migrate(gdb))

	m := gdb.Migrator()
	for _, table := range []interface{}{&model.User{}, &model.Tag{}, &model.Ingredient{}, &model.Recipe{}, "recipe_tags", "recipe_ingredients"} {
		assert.True(t, m.HasTable(table))
	}
	assert.True(t, m.HasIndex(&model.Tag{}, "idx_tags_owner_name"))

	require.NoError(t, Reset(gdb))
	assert.False(t, m.HasTable(&model.Recipe{}))
	assert.False(t, m.HasTable("recipe_tags"))
}

func TestWaitForDB_ContextCancelled(t *testing.T) {
	gdb, err := Open(config.DriverSQLite, ":memory:")
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = WaitForDB(ctx, gdb, 5, time.Second)
	assert.Error(t, err)
}

func TestLabelCollationDDL(t *testing.T) {
	stmts := labelCollationDDL(config.DriverMySQL)
	require.Len(t, stmts, 2)
	for _, stmt := range stmts {
		assert.Contains(t, stmt, "COLLATE utf8mb4_bin")
	}
	assert.Empty(t, labelCollationDDL(config.DriverSQLite))
	assert.Empty(t, labelCollationDDL(config.DriverPostgres))
}

func TestLogger_SkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: newLogger(&buf)})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&model.User{}))

	var user model.User
	err = gdb.Where("email = ?", "nobody@example.com").First(&user).Error
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.Empty(t, buf.String())

	assert.Error(t, gdb.Exec("SELECT * FROM no_such_table").Error)
	assert.Contains(t, buf.String(), "no_such_table")
}
