// Package config loads runtime configuration from an optional YAML file with
// environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// BAC holds the numeric constants of the estimation model.
type BAC struct {
	MetabolismRatePerHour    float64 `yaml:"metabolism_rate_per_hour"`
	CautionLevel             float64 `yaml:"caution_level"`
	LegalLevel               float64 `yaml:"legal_level"`
	HighLevel                float64 `yaml:"high_level"`
	RefreshIntervalSeconds   int     `yaml:"refresh_interval_seconds"`
	EthanolDensityGramsPerMl float64 `yaml:"ethanol_density_grams_per_ml"`
	GramsPerStandardDrink    float64 `yaml:"grams_per_standard_drink"`
	LookbackHours            int     `yaml:"lookback_hours"`
}

// RefreshInterval returns the recompute period as a duration.
func (b BAC) RefreshInterval() time.Duration {
	return time.Duration(b.RefreshIntervalSeconds) * time.Second
}

// Lookback returns how far back drinks are loaded for a recompute.
func (b BAC) Lookback() time.Duration {
	return time.Duration(b.LookbackHours) * time.Hour
}

// OIDC holds the optional SSO provider settings.
type OIDC struct {
	Enabled      bool   `yaml:"enabled"`
	IssuerURL    string `yaml:"issuer_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Config is the full runtime configuration.
type Config struct {
	Addr        string `yaml:"addr"`
	DatabaseURL string `yaml:"database_url"`
	LogLevel    string `yaml:"log_level"`
	BAC         BAC    `yaml:"bac"`
	OIDC        OIDC   `yaml:"oidc"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Addr:     ":8080",
		LogLevel: "info",
		BAC: BAC{
			MetabolismRatePerHour:    0.015,
			CautionLevel:             0.05,
			LegalLevel:               0.08,
			HighLevel:                0.15,
			RefreshIntervalSeconds:   900,
			EthanolDensityGramsPerMl: 0.789,
			GramsPerStandardDrink:    14,
			LookbackHours:            24,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty and the file exists), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// optional file
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.Addr = envStr("ADDR", cfg.Addr)
	cfg.DatabaseURL = envStr("DATABASE_URL", cfg.DatabaseURL)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)
	cfg.BAC.RefreshIntervalSeconds = envInt("REFRESH_INTERVAL_SECONDS", cfg.BAC.RefreshIntervalSeconds)
	cfg.OIDC.IssuerURL = envStr("OIDC_ISSUER_URL", cfg.OIDC.IssuerURL)
	cfg.OIDC.ClientID = envStr("OIDC_CLIENT_ID", cfg.OIDC.ClientID)
	cfg.OIDC.ClientSecret = envStr("OIDC_CLIENT_SECRET", cfg.OIDC.ClientSecret)
	cfg.OIDC.RedirectURL = envStr("OIDC_REDIRECT_URL", cfg.OIDC.RedirectURL)
	if cfg.OIDC.IssuerURL != "" && cfg.OIDC.ClientID != "" {
		cfg.OIDC.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	b := c.BAC
	if b.MetabolismRatePerHour <= 0 {
		return errors.New("metabolism_rate_per_hour must be > 0")
	}
	if b.CautionLevel <= 0 || b.CautionLevel >= b.LegalLevel || b.LegalLevel >= b.HighLevel {
		return errors.New("thresholds must satisfy 0 < caution < legal < high")
	}
	if b.RefreshIntervalSeconds <= 0 {
		return errors.New("refresh_interval_seconds must be > 0")
	}
	if b.EthanolDensityGramsPerMl <= 0 {
		return errors.New("ethanol_density_grams_per_ml must be > 0")
	}
	if b.GramsPerStandardDrink <= 0 {
		return errors.New("grams_per_standard_drink must be > 0")
	}
	if b.LookbackHours <= 0 {
		return errors.New("lookback_hours must be > 0")
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
