package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func unsetAll(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "TOKEN_SECRET", "TOKEN_TTL"} {
		// t.Setenv restores the original value when the test ends.
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetAll(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "users.db", cfg.Database.Path)
	assert.Equal(t, zapcore.InfoLevel, cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Token.Secret)
	assert.Equal(t, time.Hour, cfg.Token.TTL)
}

func TestLoad_FromEnv(t *testing.T) {
	unsetAll(t)
	t.Setenv("DB_PATH", "test.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "Console")
	t.Setenv("TOKEN_SECRET", "s3cret")
	t.Setenv("TOKEN_TTL", "15m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test.db", cfg.Database.Path)
	assert.Equal(t, zapcore.DebugLevel, cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 15*time.Minute, cfg.Token.TTL)
	assert.NotContains(t, cfg.String(), "s3cret")
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"LOG_LEVEL":  "loud",
		"LOG_FORMAT": "xml",
		"TOKEN_TTL":  "soon",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			unsetAll(t)
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
	t.Run("non-positive ttl", func(t *testing.T) {
		unsetAll(t)
		t.Setenv("TOKEN_TTL", "0s")
		_, err := Load()
		assert.Error(t, err)
	})
}
