/**
 * Package config 提供配置管理功能
 *
 * 负责加载和管理应用的配置信息
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

/**
 * Config 应用配置结构体
 */
type Config struct {
	// Application 应用基本配置
	Application ApplicationConfig `yaml:"application"`

	// Extractor 抽取器配置
	Extractor ExtractorConfig `yaml:"extractor"`

	// Analyzer 分析器配置
	Analyzer AnalyzerConfig `yaml:"analyzer"`

	// Storage 存储配置
	Storage StorageConfig `yaml:"storage"`

	// Cache 指标缓存配置
	Cache CacheConfig `yaml:"cache"`

	// Export 导出配置
	Export ExportConfig `yaml:"export"`

	// Logging 日志配置
	Logging LoggingConfig `yaml:"logging"`
}

/**
 * ApplicationConfig 应用基本配置
 */
type ApplicationConfig struct {
	/** 应用名称 */
	Name string `yaml:"name"`

	/** 应用版本 */
	Version string `yaml:"version"`

	/** 是否启用调试模式 */
	Debug bool `yaml:"debug"`
}

/**
 * ExtractorConfig 抽取器配置
 *
 * 选择器与标签对应门户导出 HTML 的结构
 */
type ExtractorConfig struct {
	/** 周标记单元格选择器 */
	WeekMarkerSelector string `yaml:"week_marker_selector"`

	/** 日程表格选择器 */
	TableSelector string `yaml:"table_selector"`

	/** 教师姓名选择器 */
	TeacherSelector string `yaml:"teacher_selector"`

	/** 学期学年选择器 */
	YearSelector string `yaml:"year_selector"`

	/** 标题中表示分组的标记词（小写比较） */
	GroupMarkers []string `yaml:"group_markers"`

	/** 实践课代码标记 */
	PracticeMarker string `yaml:"practice_marker"`

	/** 理论课代码标记 */
	TheoryMarker string `yaml:"theory_marker"`

	/** 教室标签 */
	RoomLabels []string `yaml:"room_labels"`

	/** 节次标签 */
	PeriodLabels []string `yaml:"period_labels"`

	/** 教师标签 */
	TeacherLabels []string `yaml:"teacher_labels"`
}

/**
 * LevelThreshold 预警/危险两级阈值
 */
type LevelThreshold struct {
	Warning int `yaml:"warning" json:"warning"`
	Danger  int `yaml:"danger" json:"danger"`
}

/**
 * AnalyzerConfig 分析器配置
 */
type AnalyzerConfig struct {
	/** 每日节数阈值 */
	Daily LevelThreshold `yaml:"daily"`

	/** 每周节数阈值，仅用于负荷等级展示 */
	Weekly LevelThreshold `yaml:"weekly"`

	/** 超载周边界：周总节数超过该值计为超载，不随阈值设置变化 */
	OverloadWeekPeriods int `yaml:"overload_week_periods"`

	/** 教室排行返回条数 */
	TopRooms int `yaml:"top_rooms"`
}

/**
 * StorageConfig 存储配置
 */
type StorageConfig struct {
	/** SQLite 配置 */
	SQLite SQLiteConfig `yaml:"sqlite"`

	/** 历史记录最多保留条数 */
	HistoryMaxItems int `yaml:"history_max_items"`
}

/**
 * SQLiteConfig SQLite 配置
 */
type SQLiteConfig struct {
	/** 数据库文件路径 */
	Path string `yaml:"path"`

	/** 最大打开连接数 */
	MaxOpenConns int `yaml:"max_open_conns"`

	/** 最大空闲连接数 */
	MaxIdleConns int `yaml:"max_idle_conns"`

	/** 连接最大生命周期 */
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

/**
 * CacheConfig 缓存配置
 */
type CacheConfig struct {
	/** 是否启用缓存 */
	Enabled bool `yaml:"enabled"`

	/** 缓存过期时间 */
	TTL string `yaml:"ttl"`

	/** 最大缓存数量 */
	MaxSize int `yaml:"max_size"`
}

/**
 * PeriodTime 单个节次的起止时刻（"07:00" 形式）
 */
type PeriodTime struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

/**
 * ExportConfig 导出配置
 */
type ExportConfig struct {
	/** 日历产品标识 */
	ProductID string `yaml:"product_id"`

	/** 时区 */
	Timezone string `yaml:"timezone"`

	/** 节次时间表 */
	PeriodTimes map[int]PeriodTime `yaml:"period_times"`
}

/**
 * LoggingConfig 日志配置
 */
type LoggingConfig struct {
	/** 日志级别 */
	Level string `yaml:"level"`

	/** 日志格式 */
	Format string `yaml:"format"`

	/** 输出目标 */
	Output string `yaml:"output"`

	/** 文件配置 */
	File FileConfig `yaml:"file"`
}

/**
 * FileConfig 文件配置
 */
type FileConfig struct {
	/** 日志文件路径 */
	Path string `yaml:"path"`

	/** 最大文件大小（MB） */
	MaxSizeMB int `yaml:"max_size_mb"`

	/** 最大备份文件数 */
	MaxBackups int `yaml:"max_backups"`

	/** 最大保留天数 */
	MaxAgeDays int `yaml:"max_age_days"`

	/** 是否压缩 */
	Compress bool `yaml:"compress"`
}

/**
 * DefaultPath 默认配置文件路径 ~/.teachload/config.yaml
 */
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".teachload", "config.yaml"), nil
}

/**
 * Load 加载配置文件
 *
 * path 为空时使用默认路径；文件不存在时返回默认配置。
 * 文件中未出现的字段保留默认值。
 *
 * Parameters:
 *   - path: 配置文件路径
 *
 * Returns:
 *   - *Config: 加载的配置
 *   - error: 错误信息
 */
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	config := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		expandEnvVars(config)
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	expandEnvVars(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

/**
 * Default 默认配置
 *
 * Returns: *Config - 默认配置
 */
func Default() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:    "teachload",
			Version: "0.1.0",
		},
		Extractor: ExtractorConfig{
			WeekMarkerSelector: ".hitec-td-tkbTuan",
			TableSelector:      "table.table-bordered",
			TeacherSelector:    ".hitec-information h5",
			YearSelector:       ".hitec-year",
			GroupMarkers:       []string{"nhóm", "group"},
			PracticeMarker:     "-TH",
			TheoryMarker:       "-LT",
			RoomLabels:         []string{"Phòng học", "Room"},
			PeriodLabels:       []string{"Tiết", "Period"},
			TeacherLabels:      []string{"Giáo viên", "Teacher"},
		},
		Analyzer: AnalyzerConfig{
			Daily:               LevelThreshold{Warning: 8, Danger: 10},
			Weekly:              LevelThreshold{Warning: 25, Danger: 35},
			OverloadWeekPeriods: 25,
			TopRooms:            10,
		},
		Storage: StorageConfig{
			SQLite: SQLiteConfig{
				Path:            "${HOME}/.teachload/teachload.db",
				MaxOpenConns:    1,
				MaxIdleConns:    1,
				ConnMaxLifetime: "30m",
			},
			HistoryMaxItems: 5,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     "10m",
			MaxSize: 16,
		},
		Export: ExportConfig{
			ProductID:   "-//teachload//Timetable//VN",
			Timezone:    "Asia/Ho_Chi_Minh",
			PeriodTimes: DefaultPeriodTimes(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
			File: FileConfig{
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 28,
			},
		},
	}
}

/**
 * DefaultPeriodTimes 默认节次时间表
 *
 * 上午 1-5 节，下午 6-9 节，晚上 11-13 节
 */
func DefaultPeriodTimes() map[int]PeriodTime {
	return map[int]PeriodTime{
		1:  {Start: "07:00", End: "07:45"},
		2:  {Start: "07:55", End: "08:40"},
		3:  {Start: "08:50", End: "09:35"},
		4:  {Start: "09:45", End: "10:30"},
		5:  {Start: "10:40", End: "11:25"},
		6:  {Start: "13:30", End: "14:15"},
		7:  {Start: "14:25", End: "15:10"},
		8:  {Start: "15:20", End: "16:05"},
		9:  {Start: "16:15", End: "17:00"},
		11: {Start: "17:10", End: "17:55"},
		12: {Start: "18:00", End: "18:45"},
		13: {Start: "18:50", End: "19:35"},
	}
}

/**
 * Validate 校验配置
 *
 * Returns: error - 第一个不合法的字段
 */
func (c *Config) Validate() error {
	if c.Extractor.WeekMarkerSelector == "" || c.Extractor.TableSelector == "" {
		return errors.New("extractor 选择器不能为空")
	}
	if c.Analyzer.Weekly.Warning <= 0 || c.Analyzer.Daily.Warning <= 0 || c.Analyzer.OverloadWeekPeriods <= 0 {
		return errors.New("analyzer 阈值必须为正数")
	}
	if c.Analyzer.Weekly.Danger < c.Analyzer.Weekly.Warning || c.Analyzer.Daily.Danger < c.Analyzer.Daily.Warning {
		return errors.New("analyzer 危险阈值不能小于预警阈值")
	}
	if c.Storage.HistoryMaxItems <= 0 {
		return errors.New("storage.history_max_items 必须为正数")
	}
	if _, err := c.CacheTTL(); err != nil {
		return fmt.Errorf("cache.ttl 格式错误: %w", err)
	}
	return nil
}

/**
 * CacheTTL 解析缓存过期时间，空串表示永不过期
 */
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Cache.TTL)
}

/**
 * ConnMaxLifetimeDuration 解析连接最大生命周期，格式错误时返回 0
 */
func (c *SQLiteConfig) ConnMaxLifetimeDuration() time.Duration {
	d, err := time.ParseDuration(c.ConnMaxLifetime)
	if err != nil {
		return 0
	}
	return d
}

/**
 * expandEnvVars 展开路径字段中的环境变量，如 ${HOME}
 *
 * Parameters:
 *   - config: 配置对象
 */
func expandEnvVars(config *Config) {
	if os.Getenv("HOME") == "" {
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			_ = os.Setenv("HOME", profile)
		}
	}

	config.Storage.SQLite.Path = os.ExpandEnv(config.Storage.SQLite.Path)
	config.Logging.File.Path = os.ExpandEnv(config.Logging.File.Path)
}
