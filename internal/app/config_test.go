package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, "onebeat", cfg.Schema)
	require.Equal(t, 15.0, cfg.DefaultBuffer)
	require.Equal(t, "dir", cfg.Remote)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ONEBEAT_SCHEMA", "Fillrate100")
	t.Setenv("ONEBEAT_COMPANY_IDS", "1,3")
	t.Setenv("ONEBEAT_ALL_COMBINATIONS", "true")
	t.Setenv("ONEBEAT_LOCK_TTL", "2m")
	t.Setenv("ONEBEAT_REMOTE", "gcs")
	t.Setenv("ONEBEAT_GCS_BUCKET", "drops")
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "fillrate100", cfg.Schema)
	require.Equal(t, []int64{1, 3}, cfg.CompanyIDs)
	require.True(t, cfg.AllCombinations)
	require.Equal(t, "drops", cfg.GCSBucket)
	require.Equal(t, "2m0s", cfg.LockTTL.String())
	require.True(t, cfg.IsProduction())
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string][2]string{
		"schema":  {"ONEBEAT_SCHEMA", "csv"},
		"remote":  {"ONEBEAT_REMOTE", "ftp"},
		"bucket":  {"ONEBEAT_REMOTE", "gcs"},
		"buffer":  {"ONEBEAT_DEFAULT_BUFFER", "-1"},
		"cron tz": {"ONEBEAT_CRON_TZ", "Mars/Olympus"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, "DEBUG", parseLevel("debug").String())
	require.Equal(t, "WARN", parseLevel("WARNING").String())
	require.Equal(t, "INFO", parseLevel("").String())
}

func TestConnectionSettings(t *testing.T) {
	t.Setenv("PG_MAX_CONNS", "12")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("REDIS_PASSWORD", "hunter2")
	t.Setenv("REDIS_DB", "2")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	pool := cfg.PoolConfig("onebeat-worker")
	require.Equal(t, int32(12), pool.MaxConns)
	require.Equal(t, "onebeat-worker", pool.ApplicationName)
	require.Equal(t, cfg.PGDSN, pool.DSN)

	require.Equal(t, "redis:6380", cfg.RedisOptions().Addr)
	require.Equal(t, 2, cfg.RedisOptions().DB)
	q := cfg.AsynqRedis()
	require.Equal(t, "hunter2", q.Password)
	require.Equal(t, 2, q.DB)
}
