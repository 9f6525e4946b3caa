package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/crewsync/crewsync/pkg/log"
)

func TestApplyReloadReappliesLogLevel(t *testing.T) {
	base := AppConfig{Log: log.Conf{Output: "stdout", Level: "info"}}
	require.NoError(t, log.Init(&base.Log))
	cfg = base

	require.False(t, log.GetLogger().Desugar().Core().Enabled(zapcore.DebugLevel))

	next := base
	next.Log.Level = "debug"
	applyReload(next)

	assert.Equal(t, "debug", Get().Log.Level)
	assert.True(t, log.GetLogger().Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestApplyReloadKeepsLoggerWhenLogSectionUnchanged(t *testing.T) {
	base := AppConfig{Log: log.Conf{Output: "stdout", Level: "info"}}
	require.NoError(t, log.Init(&base.Log))
	cfg = base
	before := log.GetLogger()

	next := base
	next.Propagation.MaxAttempts = 9
	applyReload(next)

	assert.Same(t, before, log.GetLogger())
	assert.Equal(t, 9, Get().Propagation.MaxAttempts)
}
