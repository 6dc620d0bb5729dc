package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerLevels(t *testing.T) {
	l, err := NewLogger("debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	l, err = NewLogger("nonsense")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
}

func TestPrintAdapterWritesDebug(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	a := NewPrintAdapter(zap.New(core))

	a.Printf("connected to %s\n", "broker-1")
	a.Println("closing")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "connected to broker-1", logs.All()[0].Message)
	assert.Equal(t, "closing", logs.All()[1].Message)
}
