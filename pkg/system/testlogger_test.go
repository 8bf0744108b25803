package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestLogger(t *testing.T) {
	logger := NewTestLogger()
	require.NotNil(t, logger)

	// Verify it's a sugared logger that can log without panicking
	logger.Info("test message")
	logger.Infow("test message with fields", "key", "value")
}

func TestNewObservedLogger(t *testing.T) {
	logger, logs := NewObservedLogger()
	require.NotNil(t, logger)

	logger.Debugw("token acquired", "expiresAt", "soon")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "token acquired", entry.Message)
	assert.Equal(t, "soon", entry.ContextMap()["expiresAt"])
}
