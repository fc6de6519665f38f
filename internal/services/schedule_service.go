package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chenyang-zz/teachload/internal/domain/analyzer"
	"github.com/chenyang-zz/teachload/internal/domain/extractor"
	"github.com/chenyang-zz/teachload/internal/domain/models"
	"github.com/chenyang-zz/teachload/internal/infrastructure/cache"
	"github.com/chenyang-zz/teachload/internal/infrastructure/config"
	"github.com/chenyang-zz/teachload/pkg/events"
	"github.com/chenyang-zz/teachload/pkg/logger"
	"go.uber.org/zap"
)

/**
 * Snapshot 一次分析的完整结果
 *
 * Metrics 与 Conflicts 在缓存命中时与缓存及其他 Snapshot 共享，调用方只读，
 * 需要修改时先复制
 */
type Snapshot struct {
	// Data 应用了类型覆盖与缩写的日程
	Data *models.ScheduleData

	// Annotated 写回冲突标记的日程副本
	Annotated *models.ScheduleData

	// Metrics 统计指标，只读
	Metrics *models.Metrics

	// Conflicts 冲突报告，只读
	Conflicts *analyzer.ConflictReport

	// HistoryID 保存到历史后的条目 ID
	HistoryID string

	// CacheHit 指标是否来自缓存
	CacheHit bool

	// Fingerprint 缓存键，未启用缓存时为空
	Fingerprint string
}

// analysis 缓存的分析结果
type analysis struct {
	metrics *models.Metrics
	report  *analyzer.ConflictReport
}

// thresholdSetting 持久化的阈值设置
type thresholdSetting struct {
	Daily  config.LevelThreshold `json:"daily"`
	Weekly config.LevelThreshold `json:"weekly"`
}

/**
 * Dependencies ScheduleService 的依赖
 */
type Dependencies struct {
	Extractor *extractor.Extractor
	Analyzer  *analyzer.Analyzer
	History   models.HistoryRepository
	Settings  models.SettingsRepository

	// Bus 可选，为空时不发布事件
	Bus *events.EventBus

	// Cache 可选，为空时不缓存指标
	Cache *cache.Options
}

/**
 * ScheduleService 日程服务
 *
 * 持有当前日程快照；所有修改都生成新的日程副本并整体重新计算指标
 */
type ScheduleService struct {
	extractor *extractor.Extractor
	history   models.HistoryRepository
	settings  models.SettingsRepository
	bus       *events.EventBus
	memo      *cache.MemoryCache[analysis]

	mu       sync.RWMutex
	analyzer *analyzer.Analyzer
	current  *Snapshot
}

/**
 * NewScheduleService 创建日程服务
 *
 * 已保存的阈值设置会覆盖传入分析器的阈值
 *
 * Parameters:
 *   - deps: 依赖
 *
 * Returns: *ScheduleService - 服务实例, error - 依赖缺失或读取设置失败
 */
func NewScheduleService(deps Dependencies) (*ScheduleService, error) {
	if deps.Extractor == nil || deps.Analyzer == nil || deps.History == nil || deps.Settings == nil {
		return nil, fmt.Errorf("日程服务依赖不完整")
	}

	s := &ScheduleService{
		extractor: deps.Extractor,
		analyzer:  deps.Analyzer,
		history:   deps.History,
		settings:  deps.Settings,
		bus:       deps.Bus,
	}
	if deps.Cache != nil {
		s.memo = cache.NewMemoryCache[analysis](*deps.Cache)
	}

	var stored thresholdSetting
	found, err := s.settings.Get(models.SettingThresholds, &stored)
	if err != nil {
		return nil, fmt.Errorf("读取阈值设置失败: %w", err)
	}
	if found {
		cfg := s.analyzer.Config()
		cfg.Daily, cfg.Weekly = stored.Daily, stored.Weekly
		s.analyzer = analyzer.NewAnalyzer(cfg)
	}
	return s, nil
}

/**
 * Close 释放缓存
 */
func (s *ScheduleService) Close() {
	if s.memo != nil {
		s.memo.Stop()
	}
}

/**
 * Load 抽取、分析并保存一份原始文档
 *
 * 输入自带类型覆盖或缩写（JSON 备份）时，它们替换已保存的设置；
 * 否则使用已保存的设置。保存历史失败只记录日志，不影响结果
 *
 * Parameters:
 *   - ctx: 上下文
 *   - raw: HTML 或 JSON 文档
 *
 * Returns: *Snapshot - 分析结果, error - 抽取失败或上下文取消
 */
func (s *ScheduleService) Load(ctx context.Context, raw string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.extractor.Extract(raw)
	if err != nil {
		s.publish(events.NewErrorEvent("extract", err))
		return nil, fmt.Errorf("抽取日程失败: %w", err)
	}
	s.publish(events.NewEvent(events.EventTypeScheduleLoaded, scheduleEventData(data)))

	data, err = s.applySettings(data, true)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := s.activate(data)
	s.persist(snap, true)
	return snap, nil
}

/**
 * LoadLast 恢复上次加载的日程
 *
 * Returns: *Snapshot - 分析结果, error - 没有保存过日程时为 ErrNoSchedule
 */
func (s *ScheduleService) LoadLast(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data models.ScheduleData
	found, err := s.settings.Get(models.SettingLastSchedule, &data)
	if err != nil {
		return nil, fmt.Errorf("读取上次日程失败: %w", err)
	}
	if !found {
		return nil, ErrNoSchedule
	}
	return s.restore(&data)
}

/**
 * OpenHistory 打开一条历史记录并设为当前日程
 */
func (s *ScheduleService) OpenHistory(ctx context.Context, id string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	item, err := s.history.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("读取历史失败: %w", err)
	}
	snap, err := s.restore(item.Data)
	if err != nil {
		return nil, err
	}
	s.persist(snap, false)
	return snap, nil
}

func (s *ScheduleService) restore(data *models.ScheduleData) (*Snapshot, error) {
	if data == nil {
		return nil, ErrNoSchedule
	}
	for i := range data.Weeks {
		data.Weeks[i].Normalize()
	}
	data.AllCourses = analyzer.AggregateCourses(data.Weeks)

	data, err := s.applySettings(data, false)
	if err != nil {
		return nil, err
	}
	return s.activate(data), nil
}

/**
 * Current 返回当前快照
 */
func (s *ScheduleService) Current() (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

/**
 * Overrides 已保存的类型覆盖表
 */
func (s *ScheduleService) Overrides() (map[string]models.CourseType, error) {
	overrides := make(map[string]models.CourseType)
	if _, err := s.settings.Get(models.SettingOverrides, &overrides); err != nil {
		return nil, fmt.Errorf("读取类型覆盖失败: %w", err)
	}
	return overrides, nil
}

/**
 * Abbreviations 已保存的缩写表
 */
func (s *ScheduleService) Abbreviations() (map[string]string, error) {
	abbreviations := make(map[string]string)
	if _, err := s.settings.Get(models.SettingAbbreviations, &abbreviations); err != nil {
		return nil, fmt.Errorf("读取缩写失败: %w", err)
	}
	return abbreviations, nil
}

/**
 * SetOverride 设置某课程代码的类型覆盖并重新计算
 *
 * Parameters:
 *   - code: 课程代码
 *   - courseType: LT 或 TH
 *
 * Returns: *Snapshot - 重新计算后的快照（没有当前日程时为 nil）, error - 类型非法或写入失败
 */
func (s *ScheduleService) SetOverride(code string, courseType models.CourseType) (*Snapshot, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("课程代码为空")
	}
	if !courseType.IsValid() {
		return nil, fmt.Errorf("非法的课次类型: %q", courseType)
	}

	overrides, err := s.Overrides()
	if err != nil {
		return nil, err
	}
	overrides[code] = courseType
	return s.saveOverrides(overrides)
}

/**
 * ClearOverride 删除某课程代码的类型覆盖
 */
func (s *ScheduleService) ClearOverride(code string) (*Snapshot, error) {
	overrides, err := s.Overrides()
	if err != nil {
		return nil, err
	}
	delete(overrides, strings.TrimSpace(code))
	return s.saveOverrides(overrides)
}

func (s *ScheduleService) saveOverrides(overrides map[string]models.CourseType) (*Snapshot, error) {
	if err := s.settings.Set(models.SettingOverrides, overrides); err != nil {
		return nil, fmt.Errorf("保存类型覆盖失败: %w", err)
	}
	s.publishSettingChanged(models.SettingOverrides, len(overrides))
	return s.recompute()
}

/**
 * SetAbbreviation 设置课程缩写，abbr 为空时删除
 */
func (s *ScheduleService) SetAbbreviation(name, abbr string) (*Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("课程名称为空")
	}

	abbreviations, err := s.Abbreviations()
	if err != nil {
		return nil, err
	}
	if abbr = strings.TrimSpace(abbr); abbr == "" {
		delete(abbreviations, name)
	} else {
		abbreviations[name] = abbr
	}
	return s.saveAbbreviations(abbreviations)
}

/**
 * SuggestAbbreviations 为当前日程中尚无缩写的课程生成缩写并保存
 *
 * Returns: map[string]string - 合并后的缩写表, error - 没有当前日程时为 ErrNoSchedule
 */
func (s *ScheduleService) SuggestAbbreviations() (map[string]string, error) {
	current, ok := s.Current()
	if !ok {
		return nil, ErrNoSchedule
	}

	existing, err := s.Abbreviations()
	if err != nil {
		return nil, err
	}
	merged := analyzer.SuggestAbbreviations(current.Data.SubjectNames(), existing)
	if _, err := s.saveAbbreviations(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

/**
 * ResetAbbreviations 清空缩写表
 */
func (s *ScheduleService) ResetAbbreviations() (*Snapshot, error) {
	return s.saveAbbreviations(map[string]string{})
}

func (s *ScheduleService) saveAbbreviations(abbreviations map[string]string) (*Snapshot, error) {
	if err := s.settings.Set(models.SettingAbbreviations, abbreviations); err != nil {
		return nil, fmt.Errorf("保存缩写失败: %w", err)
	}
	s.publishSettingChanged(models.SettingAbbreviations, len(abbreviations))
	return s.recompute()
}

/**
 * Thresholds 当前生效的日、周阈值
 */
func (s *ScheduleService) Thresholds() (daily, weekly config.LevelThreshold) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.analyzer.Config()
	return cfg.Daily, cfg.Weekly
}

/**
 * SetThresholds 保存日、周阈值并重新计算
 *
 * 预警阈值必须为正且不大于危险阈值
 */
func (s *ScheduleService) SetThresholds(daily, weekly config.LevelThreshold) (*Snapshot, error) {
	for _, t := range []config.LevelThreshold{daily, weekly} {
		if t.Warning <= 0 || t.Danger < t.Warning {
			return nil, fmt.Errorf("非法的阈值: warning=%d danger=%d", t.Warning, t.Danger)
		}
	}
	if err := s.settings.Set(models.SettingThresholds, thresholdSetting{Daily: daily, Weekly: weekly}); err != nil {
		return nil, fmt.Errorf("保存阈值失败: %w", err)
	}

	s.mu.Lock()
	cfg := s.analyzer.Config()
	cfg.Daily, cfg.Weekly = daily, weekly
	s.analyzer = analyzer.NewAnalyzer(cfg)
	s.mu.Unlock()

	s.publishSettingChanged(models.SettingThresholds, 2)
	return s.recompute()
}

/**
 * DayLoadLevels 当前日程某周七天的负荷等级
 */
func (s *ScheduleService) DayLoadLevels(weekIndex int) ([models.DaysPerWeek]analyzer.LoadLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return [models.DaysPerWeek]analyzer.LoadLevel{}, ErrNoSchedule
	}
	return s.analyzer.DayLoadLevels(s.current.Data, weekIndex), nil
}

// History 历史记录列表（最近优先）
func (s *ScheduleService) History() ([]*models.HistoryItem, error) {
	return s.history.List()
}

// DeleteHistory 删除历史记录
func (s *ScheduleService) DeleteHistory(id string) error {
	return s.history.Delete(id)
}

// ClearHistory 清空历史记录
func (s *ScheduleService) ClearHistory() error {
	return s.history.Clear()
}

/**
 * applySettings 合并类型覆盖与缩写
 *
 * imported 为 true 且输入自带覆盖/缩写时，输入值替换已保存的设置
 */
func (s *ScheduleService) applySettings(data *models.ScheduleData, imported bool) (*models.ScheduleData, error) {
	if imported && len(data.Overrides) > 0 {
		if err := s.settings.Set(models.SettingOverrides, data.Overrides); err != nil {
			return nil, fmt.Errorf("保存导入的类型覆盖失败: %w", err)
		}
	} else {
		overrides, err := s.Overrides()
		if err != nil {
			return nil, err
		}
		data = data.WithOverrides(overrides)
	}

	if imported && len(data.Abbreviations) > 0 {
		if err := s.settings.Set(models.SettingAbbreviations, data.Abbreviations); err != nil {
			return nil, fmt.Errorf("保存导入的缩写失败: %w", err)
		}
	} else {
		abbreviations, err := s.Abbreviations()
		if err != nil {
			return nil, err
		}
		data = data.WithAbbreviations(abbreviations)
	}
	return data, nil
}

// activate 分析日程并设为当前快照
func (s *ScheduleService) activate(data *models.ScheduleData) *Snapshot {
	s.mu.Lock()
	snap := s.analyzeLocked(data)
	s.current = snap
	s.mu.Unlock()

	s.publishMetrics(snap)
	return snap
}

/**
 * recompute 用最新设置重新计算当前快照
 */
func (s *ScheduleService) recompute() (*Snapshot, error) {
	overrides, err := s.Overrides()
	if err != nil {
		return nil, err
	}
	abbreviations, err := s.Abbreviations()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return nil, nil
	}
	data := s.current.Data.WithOverrides(overrides).WithAbbreviations(abbreviations)
	snap := s.analyzeLocked(data)
	snap.HistoryID = s.current.HistoryID
	s.current = snap
	s.mu.Unlock()

	s.publishMetrics(snap)
	if err := s.settings.Set(models.SettingLastSchedule, data); err != nil {
		logger.Warn("保存当前日程失败", zap.Error(err))
	}
	return snap, nil
}

// analyzeLocked 计算指标，按日程与分析器配置的指纹缓存；调用方持有 s.mu
func (s *ScheduleService) analyzeLocked(data *models.ScheduleData) *Snapshot {
	start := time.Now()
	compute := func() (analysis, error) {
		metrics, report := s.analyzer.AnalyzeWithConflicts(data)
		return analysis{metrics: metrics, report: report}, nil
	}

	var (
		result analysis
		hit    bool
		key    string
	)
	if s.memo != nil {
		fp, err := cache.Fingerprint(struct {
			Config config.AnalyzerConfig `json:"config"`
			Data   *models.ScheduleData  `json:"data"`
		}{s.analyzer.Config(), data})
		if err == nil {
			key = fp
			result, hit, _ = s.memo.GetOrCompute(key, compute)
		} else {
			logger.Warn("计算日程指纹失败，跳过缓存", zap.Error(err))
		}
	}
	if key == "" {
		result, _ = compute()
	}

	snap := &Snapshot{
		Data:        data,
		Annotated:   result.report.Annotate(data),
		Metrics:     result.metrics,
		Conflicts:   result.report,
		CacheHit:    hit,
		Fingerprint: key,
	}

	logger.Debug("日程分析完成",
		zap.Bool("cache_hit", hit),
		zap.Int("total_hours", snap.Metrics.TotalHours),
		zap.Int("conflicts", snap.Metrics.TotalConflicts),
		zap.Duration("duration", time.Since(start)),
	)
	return snap
}

// publishMetrics 在锁外发布，订阅者可以回调服务
func (s *ScheduleService) publishMetrics(snap *Snapshot) {
	s.publish(events.NewEvent(events.EventTypeMetricsComputed, map[string]interface{}{
		"totalHours":     snap.Metrics.TotalHours,
		"totalSessions":  snap.Metrics.TotalSessions,
		"totalConflicts": snap.Metrics.TotalConflicts,
		"cacheHit":       snap.CacheHit,
		"fingerprint":    snap.Fingerprint,
	}))
}

/**
 * persist 保存当前日程，saveHistory 为 true 时同时写入历史
 *
 * 失败只记录日志并发布错误事件
 */
func (s *ScheduleService) persist(snap *Snapshot, saveHistory bool) {
	if err := s.settings.Set(models.SettingLastSchedule, snap.Data); err != nil {
		logger.Warn("保存当前日程失败", zap.Error(err))
		s.publish(events.NewErrorEvent("persist", err))
	}
	if !saveHistory {
		return
	}

	item, err := s.history.Save(snap.Data)
	if err != nil {
		logger.Warn("保存历史失败", zap.Error(err))
		s.publish(events.NewErrorEvent("history", err))
		return
	}

	s.mu.Lock()
	snap.HistoryID = item.ID
	s.mu.Unlock()

	s.publish(events.NewEvent(events.EventTypeHistorySaved, map[string]interface{}{
		"id":      item.ID,
		"preview": item.Preview,
		"teacher": item.Teacher,
	}))
}

func (s *ScheduleService) publishSettingChanged(key string, size int) {
	s.publish(events.NewEvent(events.EventTypeSettingsChanged, map[string]interface{}{
		"key":  key,
		"size": size,
	}))
}

func (s *ScheduleService) publish(event *events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(*event); err != nil {
		logger.Warn("发布事件失败",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}

func scheduleEventData(data *models.ScheduleData) map[string]interface{} {
	sessions := 0
	for i := range data.Weeks {
		sessions += data.Weeks[i].SessionCount()
	}
	return map[string]interface{}{
		"teacher":      data.Metadata.Teacher,
		"semester":     data.Metadata.Semester,
		"academicYear": data.Metadata.AcademicYear,
		"weeks":        len(data.Weeks),
		"sessions":     sessions,
		"courses":      len(data.AllCourses),
	}
}
