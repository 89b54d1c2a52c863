package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, NewDefaultConfig().Validate())
	assert.NoError(t, Config{Level: "debug", Format: "console"}.Validate())
	assert.Error(t, Config{Level: "loud", Format: "json"}.Validate())
	assert.Error(t, Config{Level: "info", Format: "xml"}.Validate())
}

func TestNew(t *testing.T) {
	logger, err := New(NewDefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = New(Config{Level: "nope", Format: "json"})
	assert.Error(t, err)
}

func TestNewTestLogger(t *testing.T) {
	logger, observed := NewTestLogger()

	logger.Info("hello", zap.String("k", "v"))
	logger.Debug("details")

	require.Equal(t, 2, observed.Len())
	entry := observed.All()[0]
	assert.Equal(t, "hello", entry.Message)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
}
