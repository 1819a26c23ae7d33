package logger

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"

	"github.com/scan-io-git/issuetrack/pkg/shared/config"
)

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, hclog.Trace, getLogLevel("TRACE"))
	assert.Equal(t, hclog.Debug, getLogLevel("DEBUG"))
	assert.Equal(t, hclog.Warn, getLogLevel("WARN"))
	assert.Equal(t, hclog.Error, getLogLevel("ERROR"))
	assert.Equal(t, hclog.Info, getLogLevel("bogus"))
}

func TestNewLoggerConfigLevelWinsOverEnv(t *testing.T) {
	t.Setenv("ISSUETRACK_LOG_LEVEL", "ERROR")

	cfg := &config.Config{Logger: config.Logger{Level: "debug"}}
	l := NewLogger(cfg, "test")
	assert.True(t, l.IsDebug())
	assert.Equal(t, "test", l.Name())
}

func TestNewLoggerFallsBackToEnv(t *testing.T) {
	t.Setenv("ISSUETRACK_LOG_LEVEL", "warn")

	l := NewLogger(nil, "test")
	assert.False(t, l.IsInfo())
	assert.True(t, l.IsWarn())
}
