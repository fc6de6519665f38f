package storage

import (
	"testing"

	"github.com/chenyang-zz/teachload/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSettingsRepository 测试键值读写
func TestSettingsRepository(t *testing.T) {
	repo := NewSettingsRepository(openTestDB(t))

	var overrides map[string]models.CourseType
	found, err := repo.Get(models.SettingOverrides, &overrides)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Set(models.SettingOverrides, map[string]models.CourseType{"CS101-TH": models.CourseTypeTheory}))
	found, err = repo.Get(models.SettingOverrides, &overrides)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.CourseTypeTheory, overrides["CS101-TH"])

	// 覆盖写入
	require.NoError(t, repo.Set(models.SettingOverrides, map[string]models.CourseType{}))
	overrides = nil
	_, err = repo.Get(models.SettingOverrides, &overrides)
	require.NoError(t, err)
	assert.Empty(t, overrides)

	require.NoError(t, repo.Delete(models.SettingOverrides))
	found, err = repo.Get(models.SettingOverrides, &overrides)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, repo.Delete("missing"), "删除不存在的键不报错")
}

// TestSettingsRepository_DecodeError 类型不匹配时返回错误
func TestSettingsRepository_DecodeError(t *testing.T) {
	repo := NewSettingsRepository(openTestDB(t))
	require.NoError(t, repo.Set(models.SettingThresholds, "not-an-object"))

	var dest map[string]int
	found, err := repo.Get(models.SettingThresholds, &dest)
	assert.True(t, found)
	assert.Error(t, err)
}
