package config

import (
	"testing"
	"time"

	"github.com/Veraticus/finanzas/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "/home/tester/.local/share/finanzas/finanzas.db", cfg.DatabasePath)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "USD", cfg.BaseCurrency)
	assert.True(t, cfg.Metrics)
	assert.False(t, cfg.TLS)
	assert.Equal(t, "/home/tester/.config/finanzas/certs", cfg.CertDir)
	assert.Empty(t, cfg.Rates)
}

func TestLoadRates(t *testing.T) {
	v := viper.New()
	v.Set("currency.rates", map[string]any{"ars": "0.0011", "eur": "1.1"})
	v.Set("currency.base", "eur")

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "EUR", cfg.BaseCurrency)
	assert.Equal(t, "0.0011", cfg.Rates["ARS"].String())
	assert.Equal(t, "1.1", cfg.Rates["EUR"].String())
}

func TestLoadRejectsBadRate(t *testing.T) {
	v := viper.New()
	v.Set("currency.rates", map[string]any{"ars": "-1"})

	_, err := Load(v)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestLoadTLSRequiresCertDir(t *testing.T) {
	v := viper.New()
	v.Set("server.tls", true)
	v.Set("server.cert_dir", "")

	_, err := Load(v)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("DATA_DIR", "/srv/data")

	assert.Equal(t, "/home/tester/db.sqlite", ExpandPath("~/db.sqlite"))
	assert.Equal(t, "/home/tester", ExpandPath("~"))
	assert.Equal(t, "/srv/data/finanzas.db", ExpandPath("$DATA_DIR/finanzas.db"))
	assert.Equal(t, "", ExpandPath(""))
}
