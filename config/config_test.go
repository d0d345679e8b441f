package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("auth:\n  jwtSecret: s3cret\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "signaling:", cfg.Store.KeyPrefix)
	assert.Equal(t, time.Hour, cfg.Rooms.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Rooms.StaleAfter)
	assert.Equal(t, 30*time.Second, cfg.Rooms.MailboxTTL)
	assert.Equal(t, Limit{Limit: 5, Window: time.Hour}, cfg.RateLimits.Create)
	assert.Equal(t, Limit{Limit: 20, Window: time.Hour}, cfg.RateLimits.Join)
	assert.Equal(t, Limit{Limit: 50, Window: time.Hour}, cfg.RateLimits.Signal)
	assert.Equal(t, Limit{Limit: 100, Window: time.Hour}, cfg.RateLimits.Heartbeat)
	assert.Equal(t, "signaling-service", cfg.Events.ClientID)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "from-env")
	t.Setenv("TEST_REDIS_ADDR", "redis:6380")

	cfg, err := Parse([]byte(`
auth:
  jwtSecret: "${TEST_JWT_SECRET}"
store:
  redis:
    addr: "${TEST_REDIS_ADDR}"
`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "redis:6380", cfg.Store.Redis.Addr)
}

func TestParse_Durations(t *testing.T) {
	cfg, err := Parse([]byte(`
auth: {jwtSecret: x}
rooms: {ttl: 2h, staleAfter: 10m, mailboxTTL: 45s}
rateLimits:
  join: {limit: 3}
`))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.Rooms.TTL)
	assert.Equal(t, 10*time.Minute, cfg.Rooms.StaleAfter)
	assert.Equal(t, 45*time.Second, cfg.Rooms.MailboxTTL)
	assert.Equal(t, Limit{Limit: 3, Window: time.Hour}, cfg.RateLimits.Join)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing secret": "store: {driver: memory}\n",
		"bad driver":     "auth: {jwtSecret: x}\nstore: {driver: etcd}\n",
		"stale >= ttl":   "auth: {jwtSecret: x}\nrooms: {ttl: 5m, staleAfter: 5m}\n",
		"short window":   "auth: {jwtSecret: x}\nrateLimits: {signal: {limit: 1, window: 10ms}}\n",
		"bad yaml":       "auth: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_FromConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth: {jwtSecret: x}\nstore: {driver: memory}\n"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
