package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	logconfig "github.com/weisyn/newsanchor/internal/config/log"
	"github.com/weisyn/newsanchor/pkg/types"
)

// TestFileOutput 测试文件输出为 JSON 行
func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "newsanchor.log")
	logger, err := New(logconfig.New(&types.UserLogConfig{
		Level:    types.StringPtr("debug"),
		FilePath: types.StringPtr(path),
	}))
	require.NoError(t, err)

	logger.With("module", "orchestrator").Infof("publish %d", 7)
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(raw))
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "publish 7", entry["message"])
	assert.Equal(t, "orchestrator", entry["module"])
	assert.Equal(t, "info", entry["level"])
}

// TestLevelFilter 测试级别过滤
func TestLevelFilter(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := FromZap(zap.New(core))

	logger.Info("dropped")
	logger.Warnf("kept %s", "warn")
	logger.Error("kept error")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "kept warn", logs.All()[0].Message)
}

// TestNewModuleLogger 测试 module 字段注入
func TestNewModuleLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewModuleLogger(FromZap(zap.New(core)), "nft")
	logger.Debug("scan")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "nft", logs.All()[0].ContextMap()["module"])

	// nil 基础 logger 不应 panic
	assert.NotNil(t, NewModuleLogger(nil, "nft"))
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	cfg := logconfig.New(&types.UserLogConfig{Level: types.StringPtr("verbose")})
	assert.Equal(t, zapcore.InfoLevel, cfg.GetZapLevel())
}
