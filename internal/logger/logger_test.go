package logger

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/Additional-Code/oficina/internal/config"
)

func TestBuildLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{level: "debug", want: zapcore.DebugLevel},
		{level: "WARN", want: zapcore.WarnLevel},
		{level: "verbose", want: zapcore.InfoLevel},
		{level: "", want: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := Build(config.Observability{ServiceName: "oficina", LogLevel: tt.level})
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestBuildConsoleEncoding(t *testing.T) {
	logger, err := Build(config.Observability{LogEncoding: "console", LogLevel: "error"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestIgnoreSyncError(t *testing.T) {
	assert.NoError(t, ignoreSyncError(nil))
	assert.NoError(t, ignoreSyncError(fmt.Errorf("sync /dev/stderr: %w", syscall.EINVAL)))

	boom := errors.New("disk full")
	assert.Equal(t, boom, ignoreSyncError(boom))
}
