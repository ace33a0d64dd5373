package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/models"
)

func TestOpenSQLite(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBName: filepath.Join(t.TempDir(), "foodgram.db")}

	db, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	user := models.User{Email: "cook@example.com", Username: "cook", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	assert.NotZero(t, user.ID)

	dup := models.User{Email: "cook@example.com", Username: "other", PasswordHash: "x"}
	err = db.Create(&dup).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_more.sql", "0001_init.sql", "0001_init_rollback.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.sql"), 0o755))

	files, err := migrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_more.sql"}, files)
	assert.Equal(t, "0002", migrationVersion("0002_more.sql"))
}

func TestRedisConfigured(t *testing.T) {
	assert.False(t, RedisConfigured(&config.Config{RedisPort: "6379"}))
	assert.True(t, RedisConfigured(&config.Config{RedisHost: "localhost"}))
	assert.True(t, RedisConfigured(&config.Config{RedisURL: "redis://cache:6379/0"}))
}

func TestStatusRequiresMigrationsDir(t *testing.T) {
	_, err := Status(context.Background(), nil, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
