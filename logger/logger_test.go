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

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
	}{
		{name: "JSON output mode", jsonOutput: true, verbosity: VerbosityUser},
		{name: "Console output mode", jsonOutput: false, verbosity: VerbosityInfo},
		{name: "Console debug mode", jsonOutput: false, verbosity: VerbosityDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = nil
			JSONOutput = false

			err := Initialize(tt.jsonOutput, tt.verbosity)
			require.NoError(t, err)
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)

			// Cleanup
			Logger = zap.NewNop().Sugar()
		})
	}
}

func TestIsProductionEnvironment(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{name: "default is development", env: map[string]string{}, want: false},
		{name: "ENVIRONMENT=production", env: map[string]string{"ENVIRONMENT": "production"}, want: true},
		{name: "ENVIRONMENT=prod", env: map[string]string{"ENVIRONMENT": "PROD"}, want: true},
		{name: "LOG_LEVEL=warn", env: map[string]string{"LOG_LEVEL": "warn"}, want: true},
		{name: "LOG_LEVEL=debug", env: map[string]string{"LOG_LEVEL": "debug"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", "")
			t.Setenv("LOG_LEVEL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.want, isProductionEnvironment())
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(0))
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(-1))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(1))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(2))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(7))
	assert.True(t, ShouldLogTrace(3))
	assert.False(t, ShouldLogTrace(2))
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core).Sugar()

	ctx := WithBatchID(context.Background(), "b-123")
	ctx = WithRequestID(ctx, "r-9")
	ctx = WithComponent(ctx, "ix")

	FromContext(ctx, base).Infow("imported", FieldCount, 3)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "b-123", fields[FieldBatchID])
	assert.Equal(t, "r-9", fields[FieldRequestID])
	assert.Equal(t, "ix", fields[FieldComponent])
	assert.EqualValues(t, 3, fields[FieldCount])
}

func TestFromContext_NoFields(t *testing.T) {
	base := zap.NewNop().Sugar()
	assert.Same(t, base, FromContext(context.Background(), base))
}

func TestLoggingFunctions_NilSafe(t *testing.T) {
	saved := Logger
	defer func() { Logger = saved }()

	Logger = nil
	Infow("no panic")
	Warnw("no panic")
	Errorw("no panic")
	Debugw("no panic")
	Cleanup()
}
