package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_DEV", "true")
	t.Setenv("LOG_LEVEL", "error")

	l, err := FromEnv()
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestGlobal(t *testing.T) {
	prev := L()
	t.Cleanup(func() { SetGlobal(prev) })

	require.NotNil(t, L())
	SetGlobal(nil)
	assert.Same(t, prev, L())

	l := NewNop().Named("x")
	SetGlobal(l)
	assert.Same(t, l, L())
}
