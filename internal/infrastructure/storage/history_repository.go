package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chenyang-zz/teachload/internal/domain/models"
	"github.com/chenyang-zz/teachload/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("记录不存在")

// DefaultHistoryMaxItems 默认最多保留的历史条数
const DefaultHistoryMaxItems = 5

/**
 * SQLiteHistoryRepository 基于 SQLite 的历史记录仓储
 *
 * 条目按保存顺序倒序排列；同一教师、学期、学年只保留最新一条；
 * 超出上限的旧条目在保存时淘汰
 */
type SQLiteHistoryRepository struct {
	db       *sql.DB
	maxItems int
	now      func() time.Time
}

/**
 * NewHistoryRepository 创建历史记录仓储
 *
 * Parameters:
 *   - db: 已完成迁移的数据库连接
 *   - maxItems: 最多保留的条数，<=0 时使用默认值
 *
 * Returns: *SQLiteHistoryRepository - 仓储实例
 */
func NewHistoryRepository(db *sql.DB, maxItems int) *SQLiteHistoryRepository {
	if maxItems <= 0 {
		maxItems = DefaultHistoryMaxItems
	}
	return &SQLiteHistoryRepository{db: db, maxItems: maxItems, now: time.Now}
}

/**
 * Save 保存日程快照
 *
 * Parameters:
 *   - data: 日程数据
 *
 * Returns: *models.HistoryItem - 新条目（含 Data）, error - 错误信息
 */
func (r *SQLiteHistoryRepository) Save(data *models.ScheduleData) (*models.HistoryItem, error) {
	if data == nil {
		return nil, fmt.Errorf("日程数据为空")
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("序列化日程失败: %w", err)
	}

	item := &models.HistoryItem{
		ID:           uuid.New().String(),
		Teacher:      data.Metadata.Teacher,
		Semester:     data.Metadata.Semester,
		AcademicYear: data.Metadata.AcademicYear,
		SavedAt:      r.now().UTC(),
		Preview:      fmt.Sprintf("%s - %s", data.Metadata.Semester, data.Metadata.AcademicYear),
		Data:         data,
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	replaced, err := tx.Exec(
		"DELETE FROM history WHERE teacher = ? AND semester = ? AND academic_year = ?",
		item.Teacher, item.Semester, item.AcademicYear,
	)
	if err != nil {
		return nil, fmt.Errorf("删除重复历史失败: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO history (id, teacher, semester, academic_year, saved_at, preview, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Teacher, item.Semester, item.AcademicYear, item.SavedAt, item.Preview, string(payload),
	); err != nil {
		return nil, fmt.Errorf("插入历史失败: %w", err)
	}

	evicted, err := tx.Exec(
		`DELETE FROM history WHERE seq NOT IN (
		     SELECT seq FROM history ORDER BY seq DESC LIMIT ?
		 )`,
		r.maxItems,
	)
	if err != nil {
		return nil, fmt.Errorf("淘汰旧历史失败: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("提交历史失败: %w", err)
	}

	replacedCount, _ := replaced.RowsAffected()
	evictedCount, _ := evicted.RowsAffected()
	logger.Debug("历史已保存",
		zap.String("id", item.ID),
		zap.String("preview", item.Preview),
		zap.Int64("replaced", replacedCount),
		zap.Int64("evicted", evictedCount),
	)
	return item, nil
}

/**
 * List 按最近优先返回全部条目，不加载 Data
 */
func (r *SQLiteHistoryRepository) List() ([]*models.HistoryItem, error) {
	rows, err := r.db.Query(
		`SELECT id, teacher, semester, academic_year, saved_at, preview
		 FROM history ORDER BY seq DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("查询历史失败: %w", err)
	}
	defer rows.Close()

	items := make([]*models.HistoryItem, 0)
	for rows.Next() {
		item := &models.HistoryItem{}
		var preview sql.NullString
		if err := rows.Scan(&item.ID, &item.Teacher, &item.Semester, &item.AcademicYear, &item.SavedAt, &preview); err != nil {
			return nil, fmt.Errorf("扫描历史失败: %w", err)
		}
		item.Preview = preview.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历历史失败: %w", err)
	}
	return items, nil
}

/**
 * FindByID 根据ID查询条目，包含完整日程
 *
 * Returns: *models.HistoryItem - 条目, error - 不存在时为 ErrNotFound
 */
func (r *SQLiteHistoryRepository) FindByID(id string) (*models.HistoryItem, error) {
	item := &models.HistoryItem{}
	var preview sql.NullString
	var payload string

	err := r.db.QueryRow(
		`SELECT id, teacher, semester, academic_year, saved_at, preview, data
		 FROM history WHERE id = ?`, id,
	).Scan(&item.ID, &item.Teacher, &item.Semester, &item.AcademicYear, &item.SavedAt, &preview, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("查询历史失败: %w", err)
	}
	item.Preview = preview.String

	var data models.ScheduleData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("解析历史日程失败: %w", err)
	}
	item.Data = &data
	return item, nil
}

/**
 * Delete 删除条目
 *
 * Returns: error - 不存在时为 ErrNotFound
 */
func (r *SQLiteHistoryRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM history WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("删除历史失败: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Clear 清空历史
func (r *SQLiteHistoryRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM history"); err != nil {
		return fmt.Errorf("清空历史失败: %w", err)
	}
	return nil
}

var _ models.HistoryRepository = (*SQLiteHistoryRepository)(nil)
