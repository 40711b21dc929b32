package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ticket-storefront", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 3*time.Second, cfg.Payment.Delay)
	assert.Equal(t, "DISKON10", cfg.Coupon.Code)
	assert.True(t, cfg.Coupon.Percent.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "Hegra", cfg.Export.BrandName)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("COUPON_PERCENT", "25")
	t.Setenv("APP_ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.True(t, cfg.Coupon.Percent.Equal(decimal.NewFromInt(25)))
	assert.True(t, cfg.IsProduction())
}

func TestLoadWithPath_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storefront.env")
	require.NoError(t, os.WriteFile(path, []byte("PAYMENT_DELAY=250ms\nEXPORT_BRAND_NAME=Acme\n"), 0o600))

	cfg, err := LoadWithPath(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Payment.Delay)
	assert.Equal(t, "Acme", cfg.Export.BrandName)

	_, err = LoadWithPath(filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"port":        {"PORT": "70000"},
		"ttl":         {"SESSION_TTL": "0s"},
		"percent":     {"COUPON_PERCENT": "150"},
		"bad percent": {"COUPON_PERCENT": "ten"},
		"db attempts": {"DB_ENABLED": "true", "DB_CONNECT_ATTEMPTS": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable", d.DSN())
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
