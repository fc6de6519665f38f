package storage

import (
	"testing"
	"time"

	"github.com/chenyang-zz/teachload/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduleData(teacher, semester, year string) *models.ScheduleData {
	week := models.NewWeekSchedule(1, "Từ 02/09/2024 đến 08/09/2024")
	week.Day(models.Monday).Add(models.ShiftMorning, models.Session{
		CourseCode:  "CS101-LT",
		CourseName:  "Lập trình Web",
		TimeSlot:    "1-3",
		PeriodCount: 3,
		Room:        "A1-101",
		Teacher:     teacher,
		Type:        models.CourseTypeTheory,
		DayOfWeek:   "Monday",
		SessionTime: models.ShiftMorning,
	})
	return &models.ScheduleData{
		Metadata: models.Metadata{Teacher: teacher, Semester: semester, AcademicYear: year},
		Weeks:    []models.WeekSchedule{week},
		AllCourses: []models.AggregatedCourse{
			{Code: "CS101-LT", Name: "Lập trình Web", TotalSessions: 1, TotalPeriods: 3},
		},
	}
}

// TestHistoryRepository_SaveAndFind 测试保存与读取
func TestHistoryRepository_SaveAndFind(t *testing.T) {
	repo := NewHistoryRepository(openTestDB(t), 5)
	data := newScheduleData("A", "1", "2024-2025")

	item, err := repo.Save(data)
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "1 - 2024-2025", item.Preview)

	found, err := repo.FindByID(item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)
	assert.Equal(t, "A", found.Teacher)
	assert.WithinDuration(t, item.SavedAt, found.SavedAt, time.Second)
	require.NotNil(t, found.Data)
	assert.Equal(t, data.Metadata, found.Data.Metadata)
	assert.Equal(t, data.Weeks, found.Data.Weeks)
	assert.Equal(t, data.AllCourses, found.Data.AllCourses)
}

// TestHistoryRepository_ListOrder 最近保存的排在最前，列表不含日程
func TestHistoryRepository_ListOrder(t *testing.T) {
	repo := NewHistoryRepository(openTestDB(t), 5)

	for _, semester := range []string{"1", "2", "3"} {
		_, err := repo.Save(newScheduleData("A", semester, "2024-2025"))
		require.NoError(t, err)
	}

	items, err := repo.List()
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "3", items[0].Semester)
	assert.Equal(t, "1", items[2].Semester)
	assert.Nil(t, items[0].Data)
}

// TestHistoryRepository_Dedup 同一教师学期学年重复保存时替换并移到最前
func TestHistoryRepository_Dedup(t *testing.T) {
	repo := NewHistoryRepository(openTestDB(t), 5)

	first, err := repo.Save(newScheduleData("A", "1", "2024-2025"))
	require.NoError(t, err)
	_, err = repo.Save(newScheduleData("A", "2", "2024-2025"))
	require.NoError(t, err)
	again, err := repo.Save(newScheduleData("A", "1", "2024-2025"))
	require.NoError(t, err)

	items, err := repo.List()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, again.ID, items[0].ID)

	_, err = repo.FindByID(first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestHistoryRepository_Eviction 超出上限时淘汰最旧条目
func TestHistoryRepository_Eviction(t *testing.T) {
	repo := NewHistoryRepository(openTestDB(t), 2)

	for _, teacher := range []string{"A", "B", "C"} {
		_, err := repo.Save(newScheduleData(teacher, "1", "2024-2025"))
		require.NoError(t, err)
	}

	items, err := repo.List()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "C", items[0].Teacher)
	assert.Equal(t, "B", items[1].Teacher)
}

// TestHistoryRepository_DeleteAndClear 测试删除与清空
func TestHistoryRepository_DeleteAndClear(t *testing.T) {
	repo := NewHistoryRepository(openTestDB(t), 0)

	a, err := repo.Save(newScheduleData("A", "1", "2024-2025"))
	require.NoError(t, err)
	_, err = repo.Save(newScheduleData("B", "1", "2024-2025"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(a.ID))
	assert.ErrorIs(t, repo.Delete(a.ID), ErrNotFound)

	items, err := repo.List()
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, repo.Clear())
	items, err = repo.List()
	require.NoError(t, err)
	assert.Empty(t, items)
}

// TestHistoryRepository_SaveNil 空日程返回错误
func TestHistoryRepository_SaveNil(t *testing.T) {
	repo := NewHistoryRepository(openTestDB(t), 5)
	_, err := repo.Save(nil)
	assert.Error(t, err)
}
