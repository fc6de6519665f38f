package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB 创建临时数据库并执行迁移
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db"), MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestNewSQLiteDB 测试创建 SQLite 数据库连接
func TestNewSQLiteDB(t *testing.T) {
	config := SQLiteConfig{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}

	db, err := NewSQLiteDB(config)
	require.NoError(t, err)
	require.NotNil(t, db)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

// TestNewSQLiteDB_CreatesDirectory 数据库目录不存在时自动创建
func TestNewSQLiteDB_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "teachload.db")

	db, err := NewSQLiteDB(SQLiteConfig{Path: path})
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

// TestNewSQLiteDB_InvalidPath 路径的父级是普通文件时返回错误
func TestNewSQLiteDB_InvalidPath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	db, err := NewSQLiteDB(SQLiteConfig{Path: filepath.Join(file, "test.db")})
	assert.Error(t, err)
	assert.Nil(t, db)
}

// TestRunMigrations 测试数据库迁移
func TestRunMigrations(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"schema_migrations", "history", "settings"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "表 %s 应该存在", table)
	}

	var version int
	require.NoError(t, db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, len(migrations), version)
}

// TestRunMigrations_Idempotent 重复执行迁移不会出错
func TestRunMigrations_Idempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, RunMigrations(db))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, len(migrations), count)
}

// TestRunMigrations_Partial 已有部分迁移时只执行剩余部分
func TestRunMigrations_Partial(t *testing.T) {
	db, err := NewSQLiteDB(SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(migrations[0].SQL)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO schema_migrations (version) VALUES (1)")
	require.NoError(t, err)

	require.NoError(t, RunMigrations(db))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, len(migrations), count)
}
