/**
 * Package logger 提供结构化日志功能
 *
 * 基于 uber-go/zap 实现的结构化日志系统。
 * 支持开发环境和生产环境的不同配置，可选按大小滚动的日志文件（lumberjack）。
 */
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// logger 全局日志实例
	logger *zap.Logger

	// once 确保日志只初始化一次
	once sync.Once

	// sugar 全局 sugared logger 实例
	sugar *zap.SugaredLogger

	// mu 保护 Configure 对全局实例的替换
	mu sync.Mutex
)

/**
 * FileOptions 日志文件滚动配置
 */
type FileOptions struct {
	// Path 日志文件路径，为空表示不写文件
	Path string

	// MaxSizeMB 单个文件最大尺寸（MB）
	MaxSizeMB int

	// MaxBackups 最多保留的旧文件数
	MaxBackups int

	// MaxAgeDays 旧文件最长保留天数
	MaxAgeDays int

	// Compress 是否压缩旧文件
	Compress bool
}

/**
 * Options 日志配置
 */
type Options struct {
	// Level 日志级别（debug/info/warn/error）
	Level string

	// Format 输出格式（console/json）
	Format string

	// Output 控制台输出目标（stderr/stdout/none）
	Output string

	// File 文件输出配置
	File FileOptions
}

// InitLogger 初始化日志系统
//
// 根据环境变量配置日志系统：
//   - 开发环境：控制台彩色输出，Debug 级别
//   - 生产环境：JSON 格式，Info 级别
//
// 环境变量：
//   - ENV: 环境类型（development/production），默认为 development
//   - LOG_LEVEL: 日志级别，默认根据环境自动设置
//   - LOG_FILE: 日志文件路径（可选）
//
// 日志写到 stderr，stdout 留给命令输出。
//
// Returns: error - 初始化失败时返回错误
func InitLogger() error {
	var initErr error
	once.Do(func() {
		opts := Options{
			Format: "console",
			Level:  getEnv("LOG_LEVEL", "debug"),
			Output: "stderr",
			File:   FileOptions{Path: getEnv("LOG_FILE", "")},
		}
		if getEnv("ENV", "development") == "production" {
			opts.Format = "json"
			opts.Level = getEnv("LOG_LEVEL", "info")
		}

		var l *zap.Logger
		l, initErr = build(opts)
		if initErr != nil {
			return
		}
		setGlobal(l)
	})

	return initErr
}

// Configure 按显式配置重建全局 logger
//
// 与 InitLogger 不同，Configure 可以重复调用（例如读取配置文件之后）。
//
// Parameters:
//   - opts: 日志配置
//
// Returns: error - 构建失败时返回错误，此时保留原有 logger
func Configure(opts Options) error {
	l, err := build(opts)
	if err != nil {
		return err
	}

	// 让后续 InitLogger 成为空操作
	once.Do(func() {})

	mu.Lock()
	old := logger
	mu.Unlock()
	setGlobal(l)
	if old != nil {
		_ = old.Sync()
	}
	return nil
}

// build 根据配置构建 zap.Logger
//
// 控制台与文件输出通过 zapcore.NewTee 组合；文件输出始终使用 JSON 编码。
func build(opts Options) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	atomicLevel := zap.NewAtomicLevelAt(level)

	cores := make([]zapcore.Core, 0, 2)

	if sink := consoleSink(opts.Output); sink != nil {
		var encoder zapcore.Encoder
		if opts.Format == "json" {
			encoder = zapcore.NewJSONEncoder(productionEncoderConfig())
		} else {
			encoder = zapcore.NewConsoleEncoder(developmentEncoderConfig())
		}
		cores = append(cores, zapcore.NewCore(encoder, sink, atomicLevel))
	}

	if opts.File.Path != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File.Path,
			MaxSize:    opts.File.MaxSizeMB,
			MaxBackups: opts.File.MaxBackups,
			MaxAge:     opts.File.MaxAgeDays,
			Compress:   opts.File.Compress,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(productionEncoderConfig()),
			zapcore.AddSync(rotator),
			atomicLevel,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	return zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// developmentEncoderConfig 开发环境编码配置
//
// 彩色级别、短调用者、友好的时间格式（2024-01-29 15:04:05.123）
func developmentEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    "",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.999"),
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// productionEncoderConfig 生产环境编码配置
func productionEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

func consoleSink(output string) zapcore.WriteSyncer {
	switch output {
	case "none":
		return nil
	case "stdout":
		return zapcore.Lock(os.Stdout)
	default:
		return zapcore.Lock(os.Stderr)
	}
}

func setGlobal(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
	sugar = l.Sugar()
}

// GetLogger 获取全局 logger 实例
//
// 如果日志系统未初始化，会自动初始化（开发模式）。
//
// Returns: *zap.Logger - 全局 logger 实例
func GetLogger() *zap.Logger {
	mu.Lock()
	l := logger
	mu.Unlock()
	if l == nil {
		_ = InitLogger()
		mu.Lock()
		l = logger
		mu.Unlock()
	}
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// GetSugaredLogger 获取全局 sugared logger 实例
//
// Returns: *zap.SugaredLogger - 全局 sugared logger 实例
func GetSugaredLogger() *zap.SugaredLogger {
	return GetLogger().Sugar()
}

// Sync 刷新日志缓冲区
//
// 应用退出前应该调用此方法确保所有日志都已写入。
func Sync() error {
	mu.Lock()
	l := logger
	mu.Unlock()
	if l != nil {
		return l.Sync()
	}
	return nil
}

// Debug 记录 Debug 级别日志
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Info 记录 Info 级别日志
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Warn 记录 Warn 级别日志
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error 记录 Error 级别日志
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// With 创建带有预设字段的 logger
//
// Parameters:
//   - fields: 预设的日志字段
//
// Returns: *zap.Logger - 带有预设字段的 logger
func With(fields ...zap.Field) *zap.Logger {
	return GetLogger().With(fields...)
}

// getEnv 获取环境变量，不存在时返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
