package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chenyang-zz/teachload/internal/domain/models"
)

/**
 * SQLiteSettingsRepository 基于 SQLite 的键值设置仓储，值保存为 JSON
 */
type SQLiteSettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository 创建设置仓储
func NewSettingsRepository(db *sql.DB) *SQLiteSettingsRepository {
	return &SQLiteSettingsRepository{db: db}
}

/**
 * Get 读取键值
 *
 * Parameters:
 *   - key: 键
 *   - dest: 解码目标（指针）
 *
 * Returns: bool - 键是否存在, error - 错误信息
 */
func (r *SQLiteSettingsRepository) Get(key string, dest interface{}) (bool, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("查询设置 %s 失败: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), dest); err != nil {
		return true, fmt.Errorf("解析设置 %s 失败: %w", key, err)
	}
	return true, nil
}

/**
 * Set 写入键值，已存在时覆盖
 */
func (r *SQLiteSettingsRepository) Set(key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("序列化设置 %s 失败: %w", key, err)
	}
	_, err = r.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(payload),
	)
	if err != nil {
		return fmt.Errorf("写入设置 %s 失败: %w", key, err)
	}
	return nil
}

// Delete 删除键，键不存在时不报错
func (r *SQLiteSettingsRepository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("删除设置 %s 失败: %w", key, err)
	}
	return nil
}

var _ models.SettingsRepository = (*SQLiteSettingsRepository)(nil)
