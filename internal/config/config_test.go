package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	p, err := Load("", "")
	require.NoError(t, err)

	cf := p.Get()
	assert.Equal(t, "8000", cf.ServerPort)
	assert.Equal(t, "postgres", cf.StoreDriver)
	assert.Equal(t, "crm.events", cf.KafkaTopic)
	assert.Equal(t, "*/5 * * * *", cf.HeartbeatSchedule)
	assert.Equal(t, "/tmp/order_reminders_log.txt", cf.OrderRemindersLogPath)
	assert.Equal(t, 7, cf.ReminderLookbackDays)
	assert.Equal(t, 10*time.Minute, cf.JobLockTTL)
	assert.Empty(t, cf.KafkaBrokerList())
	assert.Equal(t, "postgres://postgres:@localhost:5432/crm?sslmode=disable", cf.DatabaseURL())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("MIGRATION_URL", "postgres://u:p@db:5432/x")

	p, err := Load("", "")
	require.NoError(t, err)

	cf := p.Get()
	assert.Equal(t, "memory", cf.StoreDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cf.KafkaBrokerList())
	assert.Equal(t, 2.5, cf.RateLimitPerSecond)
	assert.Equal(t, "postgres://u:p@db:5432/x", cf.DatabaseURL())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CRM_TEST_DOTENV_PORT=9999\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CRM_TEST_DOTENV_PORT") })

	_, err := Load(envFile, "")
	require.NoError(t, err)
	assert.Equal(t, "9999", os.Getenv("CRM_TEST_DOTENV_PORT"))

	_, err = Load(filepath.Join(dir, "missing.env"), "")
	require.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		val  string
	}{
		{name: "store driver", key: "STORE_DRIVER", val: "mysql"},
		{name: "log level", key: "LOG_LEVEL", val: "loud"},
		{name: "rate", key: "RATE_LIMIT_CAPACITY", val: "0"},
		{name: "lookback", key: "REMINDER_LOOKBACK_DAYS", val: "-1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := Load("", "")
			require.Error(t, err)
		})
	}
}

func TestLoad_WatchReloadsLogLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	path := filepath.Join(t.TempDir(), "crm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL: info\n"), 0o644))

	p, err := Load("", path)
	require.NoError(t, err)
	require.Equal(t, "info", p.Get().LogLevel)

	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL: warn\n"), 0o644))

	assert.Eventually(t, func() bool {
		return p.Get().LogLevel == "warn" && zerolog.GlobalLevel() == zerolog.WarnLevel
	}, 3*time.Second, 50*time.Millisecond)
}
