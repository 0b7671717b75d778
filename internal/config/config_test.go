package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.HTTP.Addr)
	assert.Equal(t, "erp.db", cfg.DB.Path)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "log", cfg.SMS.Provider)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
	assert.Empty(t, cfg.HTTP.TrustedProxies)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "erp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":8080"
db:
  path: /var/lib/erp/erp.db
cors:
  origins: "http://a.test, http://b.test"
`), 0o644))
	t.Setenv("ERP_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "/var/lib/erp/erp.db", cfg.DB.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.Origins)
}

func TestLoad_HTTPProviderNeedsEndpoint(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ERP_SMS_PROVIDER", "http")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sms.endpoint")
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ERP_HTTP_TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.HTTP.TrustedProxies)

	t.Setenv("ERP_HTTP_TRUSTED_PROXIES", "lb.internal")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.trusted_proxies")
}
