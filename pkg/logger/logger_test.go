package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := newLogger(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNewDefaults(t *testing.T) {
	l, err := newLogger(Config{})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestWithContextAddsReadFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))

	ctx := ContextWithRead(context.Background(), "r-1", "data.csv")
	WithContext(ctx).Info("read complete")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "r-1", fields["read_id"])
	assert.Equal(t, "data.csv", fields["source"])
}
