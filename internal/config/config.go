package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/finanzas/internal/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Default locations used when the matching keys are not configured.
const (
	DefaultDatabasePath = "$HOME/.local/share/finanzas/finanzas.db"
	DefaultCertDir      = "$HOME/.config/finanzas/certs"
)

// Config holds the resolved application settings.
type Config struct {
	Rates        map[string]decimal.Decimal
	DatabasePath string
	ServerAddr   string
	CertDir      string
	LogLevel     string
	LogFormat    string
	BaseCurrency string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Metrics      bool
	TLS          bool
}

// SetDefaults registers the default value of every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.tls", false)
	v.SetDefault("server.cert_dir", DefaultCertDir)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("currency.base", "USD")
	v.SetDefault("metrics.enabled", true)
}

// Load reads and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		DatabasePath: ExpandPath(v.GetString("database.path")),
		ServerAddr:   v.GetString("server.addr"),
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		TLS:          v.GetBool("server.tls"),
		CertDir:      ExpandPath(v.GetString("server.cert_dir")),
		LogLevel:     v.GetString("logging.level"),
		LogFormat:    v.GetString("logging.format"),
		BaseCurrency: strings.ToUpper(v.GetString("currency.base")),
		Metrics:      v.GetBool("metrics.enabled"),
	}

	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if cfg.ServerAddr == "" {
		return nil, fmt.Errorf("%w: server.addr", common.ErrMissingConfig)
	}
	if cfg.TLS && cfg.CertDir == "" {
		return nil, fmt.Errorf("%w: server.cert_dir is required when server.tls is enabled", common.ErrMissingConfig)
	}

	rates := v.GetStringMapString("currency.rates")
	if len(rates) > 0 {
		cfg.Rates = make(map[string]decimal.Decimal, len(rates))
		for code, raw := range rates {
			rate, err := decimal.NewFromString(raw)
			if err != nil || !rate.IsPositive() {
				return nil, fmt.Errorf("%w: currency.rates.%s must be a positive number", common.ErrInvalidConfig, code)
			}
			cfg.Rates[strings.ToUpper(code)] = rate
		}
	}

	return cfg, nil
}
