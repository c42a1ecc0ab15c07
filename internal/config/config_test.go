package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "testuser")
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("DB_NAME", "testdb")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("APP_ENV", "test")
	t.Setenv("PAY_APP_ID", "wx-test-app")
	t.Setenv("PAY_MCH_ID", "mch-test")
	t.Setenv("PAY_API_KEY", "test-api-key")
	t.Setenv("PAY_NOTIFY_URL", "https://mall.example.com/notify/payment")
	t.Setenv("PAY_BASE_URL", "https://gateway.example.com")
	t.Setenv("PAY_SANDBOX", "false")
}

func TestLoadConfig(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		setValidEnv(t)

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, "wx-test-app", cfg.PayAppID)
		assert.Equal(t, "mch-test", cfg.PayMchID)
		assert.Equal(t, "test-api-key", cfg.PayAPIKey)
		assert.False(t, cfg.PaySandbox)
	})

	t.Run("SandboxFlag", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("PAY_SANDBOX", "true")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.True(t, cfg.PaySandbox)
	})

	t.Run("MissingCredentials", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("PAY_API_KEY", "")

		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("InvalidNotifyURL", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("PAY_NOTIFY_URL", "not-a-url")

		_, err := LoadConfig()
		assert.Error(t, err)
	})
}
