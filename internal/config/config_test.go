package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so stray .env files are not picked up
func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	originalDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(originalDir) })

	for _, key := range []string{
		"CAREPOINT_CONFIG", "CAREPOINT_API_URL", "CAREPOINT_API_TIMEOUT",
		"WEB_ADDR", "WEB_ALLOWED_ORIGINS", "WEB_INSECURE_COOKIES",
		"REDIS_URL", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	return dir
}

func TestLoad_MissingAPIURL(t *testing.T) {
	isolate(t)

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingAPIURL)
}

func TestLoad_FromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("CAREPOINT_API_URL", "https://api.carepoint.test/v1")
	t.Setenv("CAREPOINT_API_TIMEOUT", "5s")
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://a.test, https://b.test")
	t.Setenv("WEB_INSECURE_COOKIES", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.carepoint.test/v1", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.Web.AllowedOrigins)
	assert.True(t, cfg.Web.InsecureCookies)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, ":3000", cfg.Web.Addr)
}

func TestLoad_YAMLFileWithEnvOverride(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "carepoint.yaml")
	content := `
api:
  base_url: https://file.carepoint.test
  timeout: 10s
web:
  addr: ":8081"
redis:
  url: redis://localhost:6379/0
logging:
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("CAREPOINT_CONFIG", path)
	t.Setenv("WEB_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://file.carepoint.test", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, ":9090", cfg.Web.Addr)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		timeout time.Duration
		wantErr bool
	}{
		{name: "valid https", baseURL: "https://api.test", timeout: time.Second},
		{name: "valid http with port", baseURL: "http://localhost:8000/api", timeout: time.Second},
		{name: "blank", baseURL: "  ", timeout: time.Second, wantErr: true},
		{name: "no scheme", baseURL: "api.test", timeout: time.Second, wantErr: true},
		{name: "ftp scheme", baseURL: "ftp://api.test", timeout: time.Second, wantErr: true},
		{name: "zero timeout", baseURL: "https://api.test", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{API: APIConfig{BaseURL: tt.baseURL, Timeout: tt.timeout}}
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	isolate(t)
	t.Setenv("CAREPOINT_API_URL", "https://api.test")
	t.Setenv("CAREPOINT_API_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CAREPOINT_API_TIMEOUT")
}
