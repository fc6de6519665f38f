/**
 * Package app 组装应用依赖
 *
 * App 层职责：
 * - 加载配置并初始化日志
 * - 打开数据库并创建仓储
 * - 创建抽取器、分析器、事件总线、服务与导出器
 * - 按相反顺序释放资源
 */

package app

import (
	"database/sql"
	"fmt"
	_ "time/tzdata" // 导出时区不依赖系统时区库

	"github.com/chenyang-zz/teachload/internal/domain/analyzer"
	"github.com/chenyang-zz/teachload/internal/domain/extractor"
	"github.com/chenyang-zz/teachload/internal/infrastructure/cache"
	"github.com/chenyang-zz/teachload/internal/infrastructure/config"
	"github.com/chenyang-zz/teachload/internal/infrastructure/export"
	"github.com/chenyang-zz/teachload/internal/infrastructure/storage"
	"github.com/chenyang-zz/teachload/internal/services"
	"github.com/chenyang-zz/teachload/pkg/events"
	"github.com/chenyang-zz/teachload/pkg/logger"
	"go.uber.org/zap"
)

/**
 * App 应用依赖容器
 */
type App struct {
	// Config 生效的配置
	Config *config.Config

	// Service 日程服务
	Service *services.ScheduleService

	// Exporter 导出器
	Exporter *export.Exporter

	// Bus 事件总线
	Bus *events.EventBus

	db *sql.DB
}

/**
 * Options 启动选项
 */
type Options struct {
	// ConfigPath 配置文件路径，为空时使用 ~/.teachload/config.yaml
	ConfigPath string

	// DBPath 覆盖配置中的数据库路径
	DBPath string

	// Verbose 强制 debug 级别日志
	Verbose bool
}

/**
 * New 创建并启动应用
 *
 * Parameters:
 *   - opts: 启动选项
 *
 * Returns: *App - 应用实例, error - 任一组件初始化失败
 */
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	if opts.DBPath != "" {
		cfg.Storage.SQLite.Path = opts.DBPath
	}
	if err := configureLogger(cfg, opts.Verbose); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	a := &App{Config: cfg}
	if err := a.startup(); err != nil {
		a.Shutdown()
		return nil, err
	}

	logger.Debug("应用已启动",
		zap.String("version", cfg.Application.Version),
		zap.String("db", cfg.Storage.SQLite.Path),
	)
	return a, nil
}

func (a *App) startup() error {
	cfg := a.Config

	db, err := storage.Open(storage.SQLiteConfig{
		Path:            cfg.Storage.SQLite.Path,
		MaxOpenConns:    cfg.Storage.SQLite.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.SQLite.MaxIdleConns,
		ConnMaxLifetime: cfg.Storage.SQLite.ConnMaxLifetimeDuration(),
	})
	if err != nil {
		return fmt.Errorf("打开数据库失败: %w", err)
	}
	a.db = db

	ext, err := extractor.New(cfg.Extractor)
	if err != nil {
		return err
	}

	a.Exporter, err = export.New(cfg.Export)
	if err != nil {
		return err
	}

	a.Bus = events.NewEventBus()
	a.Bus.Use(events.RecoveryMiddleware())
	a.Bus.Use(events.LoggingMiddleware())
	subscribeLogging(a.Bus)

	var memo *cache.Options
	if cfg.Cache.Enabled {
		ttl, err := cfg.CacheTTL()
		if err != nil {
			return err
		}
		memo = &cache.Options{MaxSize: cfg.Cache.MaxSize, TTL: ttl}
	}

	a.Service, err = services.NewScheduleService(services.Dependencies{
		Extractor: ext,
		Analyzer:  analyzer.NewAnalyzer(cfg.Analyzer),
		History:   storage.NewHistoryRepository(db, cfg.Storage.HistoryMaxItems),
		Settings:  storage.NewSettingsRepository(db),
		Bus:       a.Bus,
		Cache:     memo,
	})
	return err
}

/**
 * Shutdown 释放资源
 *
 * 可以重复调用
 */
func (a *App) Shutdown() {
	if a.Service != nil {
		a.Service.Close()
		a.Service = nil
	}
	if a.Bus != nil {
		a.Bus.Stop()
		a.Bus = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.Warn("关闭数据库失败", zap.Error(err))
		}
		a.db = nil
	}
	_ = logger.Sync()
}

// subscribeLogging 把流水线事件写入日志，错误为 Warn，其余为 Debug
func subscribeLogging(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeError, func(event events.Event) error {
		logger.Warn("流水线错误",
			zap.String("stage", event.String("stage")),
			zap.String("error", event.String("error")),
		)
		return nil
	})
	bus.Subscribe(events.EventTypeScheduleLoaded, func(event events.Event) error {
		logger.Debug("日程已加载",
			zap.String("teacher", event.String("teacher")),
			zap.String("semester", event.String("semester")),
			zap.String("academic_year", event.String("academicYear")),
			zap.Int("weeks", event.Int("weeks")),
			zap.Int("sessions", event.Int("sessions")),
			zap.Int("courses", event.Int("courses")),
		)
		return nil
	})
	bus.Subscribe(events.EventTypeMetricsComputed, func(event events.Event) error {
		logger.Debug("指标已计算",
			zap.Int("total_hours", event.Int("totalHours")),
			zap.Int("total_sessions", event.Int("totalSessions")),
			zap.Int("total_conflicts", event.Int("totalConflicts")),
			zap.Bool("cache_hit", event.Bool("cacheHit")),
		)
		return nil
	})
	bus.Subscribe(events.EventTypeHistorySaved, func(event events.Event) error {
		logger.Debug("历史已保存",
			zap.String("id", event.String("id")),
			zap.String("preview", event.String("preview")),
		)
		return nil
	})
	bus.Subscribe(events.EventTypeSettingsChanged, func(event events.Event) error {
		logger.Debug("设置已变更",
			zap.String("key", event.String("key")),
			zap.Int("size", event.Int("size")),
		)
		return nil
	})
}

func configureLogger(cfg *config.Config, verbose bool) error {
	level := cfg.Logging.Level
	if verbose || cfg.Application.Debug {
		level = "debug"
	}
	return logger.Configure(logger.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		File: logger.FileOptions{
			Path:       cfg.Logging.File.Path,
			MaxSizeMB:  cfg.Logging.File.MaxSizeMB,
			MaxBackups: cfg.Logging.File.MaxBackups,
			MaxAgeDays: cfg.Logging.File.MaxAgeDays,
			Compress:   cfg.Logging.File.Compress,
		},
	})
}
