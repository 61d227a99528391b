package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerLevels(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	log := InitLogger("warn", false)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())

	// Development defaults to debug, production to info.
	assert.Equal(t, logrus.DebugLevel, InitLogger("", true).GetLevel())
	assert.Equal(t, logrus.InfoLevel, InitLogger("", false).GetLevel())

	// Bad levels fall back to info rather than failing.
	assert.Equal(t, logrus.InfoLevel, InitLogger("shouting", false).GetLevel())
}

func TestInitLoggerFormatter(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	_, ok := InitLogger("info", false).Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok, "non-development output is JSON")

	_, ok = InitLogger("info", true).Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)

	t.Setenv("LOG_FORMAT", "json")
	_, ok = InitLogger("info", true).Formatter.(*logrus.JSONFormatter)
	require.True(t, ok, "LOG_FORMAT=json overrides development text output")
}
