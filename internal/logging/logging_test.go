package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewAppliesLevel(t *testing.T) {
	cases := map[string]zap.AtomicLevel{
		"debug":   zap.NewAtomicLevelAt(zap.DebugLevel),
		"WARN":    zap.NewAtomicLevelAt(zap.WarnLevel),
		"error":   zap.NewAtomicLevelAt(zap.ErrorLevel),
		"verbose": zap.NewAtomicLevelAt(zap.InfoLevel),
	}
	for level, want := range cases {
		logger, err := New(level, "console")
		require.NoError(t, err)
		require.True(t, logger.Core().Enabled(want.Level()), level)
		if want.Level() > zap.DebugLevel {
			require.False(t, logger.Core().Enabled(want.Level()-1), level)
		}
	}
}

func TestNewRejectsUnknownEncoding(t *testing.T) {
	_, err := New("info", "xml")
	require.Error(t, err)
}
