/**
 * Package logger 日志系统测试
 */
package logger

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// resetGlobals 重置全局 logger 状态（仅用于测试）
//
// sync.Once 不支持重置，这里直接赋新值
func resetGlobals() {
	once = sync.Once{} //nolint:all
	logger = nil
	sugar = nil
}

// TestInitLogger 测试日志系统初始化
//
// 测试场景：
//  1. 开发环境初始化
//  2. 生产环境初始化
//  3. 重复初始化（幂等性）
func TestInitLogger(t *testing.T) {
	t.Run("开发环境初始化", func(t *testing.T) {
		resetGlobals()
		t.Setenv("ENV", "development")

		err := InitLogger()
		require.NoError(t, err, "初始化日志系统不应失败")

		assert.NotNil(t, logger, "logger 不应为 nil")
		assert.NotNil(t, sugar, "sugar logger 不应为 nil")
	})

	t.Run("生产环境初始化", func(t *testing.T) {
		resetGlobals()
		t.Setenv("ENV", "production")

		err := InitLogger()
		require.NoError(t, err, "初始化日志系统不应失败")
		assert.NotNil(t, logger, "logger 不应为 nil")
	})

	t.Run("重复初始化（幂等性）", func(t *testing.T) {
		resetGlobals()
		t.Setenv("ENV", "development")

		require.NoError(t, InitLogger())
		first := logger

		require.NoError(t, InitLogger())
		assert.Same(t, first, logger, "重复初始化应该返回同一个实例")
	})
}

// TestGetLogger 测试未初始化时自动初始化
func TestGetLogger(t *testing.T) {
	resetGlobals()
	t.Setenv("ENV", "development")

	l := GetLogger()
	assert.NotNil(t, l, "logger 不应为 nil")
	assert.NotNil(t, GetSugaredLogger())
}

// TestConfigure_FileRotation 测试写入滚动日志文件
func TestConfigure_FileRotation(t *testing.T) {
	resetGlobals()
	path := filepath.Join(t.TempDir(), "logs", "teachload.log")

	err := Configure(Options{
		Level:  "debug",
		Output: "none",
		File: FileOptions{
			Path:       path,
			MaxSizeMB:  1,
			MaxBackups: 2,
			MaxAgeDays: 7,
		},
	})
	require.NoError(t, err)

	Info("写入测试日志", zap.String("component", "logger_test"))
	require.NoError(t, Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "写入测试日志")
	assert.Contains(t, string(content), `"component":"logger_test"`)
}

// TestConfigure_LevelFilter 测试级别过滤
func TestConfigure_LevelFilter(t *testing.T) {
	resetGlobals()
	path := filepath.Join(t.TempDir(), "level.log")

	require.NoError(t, Configure(Options{Level: "warn", Output: "none", File: FileOptions{Path: path}}))

	Debug("不应出现的调试日志")
	Warn("应出现的警告日志")
	require.NoError(t, Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "不应出现的调试日志")
	assert.Contains(t, string(content), "应出现的警告日志")
}

// TestConfigure_NoOutput 测试关闭所有输出时返回 Nop logger
func TestConfigure_NoOutput(t *testing.T) {
	resetGlobals()

	require.NoError(t, Configure(Options{Output: "none"}))
	assert.NotPanics(t, func() {
		Info("丢弃")
		Error("丢弃")
	})
}

// TestWith 测试预设字段
func TestWith(t *testing.T) {
	resetGlobals()
	require.NoError(t, Configure(Options{Output: "none"}))

	l := With(zap.String("request_id", "abc"))
	assert.NotNil(t, l)
}

// TestGetEnv 测试环境变量读取
func TestGetEnv(t *testing.T) {
	t.Setenv("TEACHLOAD_TEST_KEY", "value")
	assert.Equal(t, "value", getEnv("TEACHLOAD_TEST_KEY", "default"))
	assert.Equal(t, "default", getEnv("TEACHLOAD_TEST_MISSING", "default"))
}
