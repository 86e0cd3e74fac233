package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ModeProduction = "production"
	ModeLocal      = "local"
)

type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	BaseURL         string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"2m"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"2m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	TrustProxy      bool          `env:"TRUST_PROXY" envDefault:"false"`

	Analysis  AnalysisConfig
	Session   SessionConfig
	Archive   ArchiveConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig

	DatabaseURL string `env:"DATABASE_URL"`
	GeoIPPath   string `env:"GEOIP_DB_PATH"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// AnalysisConfig selects the analysis service by deployment mode.
type AnalysisConfig struct {
	Mode     string        `env:"FITPOSE_MODE" envDefault:"local"`
	ProdURL  string        `env:"ANALYSIS_PROD_URL"`
	LocalURL string        `env:"ANALYSIS_LOCAL_URL" envDefault:"http://localhost:8000"`
	Timeout  time.Duration `env:"ANALYSIS_TIMEOUT" envDefault:"120s"`
}

// BaseURL is the analysis service root for the configured mode.
func (a AnalysisConfig) BaseURL() string {
	if a.Mode == ModeProduction {
		return a.ProdURL
	}
	return a.LocalURL
}

type SessionConfig struct {
	Secret        string        `env:"SESSION_SECRET"`
	IdleTTL       time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	SecureCookies bool          `env:"SECURE_COOKIES" envDefault:"false"`
	IPHashKey     string        `env:"IP_HASH_KEY"`
}

type ArchiveConfig struct {
	Enabled   bool          `env:"ARCHIVE_ENABLED" envDefault:"false"`
	Retention time.Duration `env:"ARCHIVE_RETENTION" envDefault:"720h"`
}

type StorageConfig struct {
	Endpoint  string `env:"S3_ENDPOINT" envDefault:"http://localhost:3900"`
	Bucket    string `env:"S3_BUCKET" envDefault:"fitpose-uploads"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	Region    string `env:"S3_REGION" envDefault:"eu-central-1"`
}

type RateLimitConfig struct {
	UploadPerSecond float64 `env:"UPLOAD_RATE_PER_SECOND" envDefault:"0.2"`
	UploadBurst     int     `env:"UPLOAD_RATE_BURST" envDefault:"5"`
	APIPerSecond    float64 `env:"API_RATE_PER_SECOND" envDefault:"10"`
	APIBurst        int     `env:"API_RATE_BURST" envDefault:"30"`
}

func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}

// Load reads envFile when it exists, then the process environment. Variables
// already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Session.Secret == "" {
		cfg.Session.Secret = randomHex(32)
		slog.Warn("config: SESSION_SECRET not set, sessions will not survive a restart")
	}
	if cfg.Session.IPHashKey == "" {
		cfg.Session.IPHashKey = cfg.Session.Secret
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Analysis.Mode {
	case ModeProduction:
		if c.Analysis.ProdURL == "" {
			errs = append(errs, errors.New("ANALYSIS_PROD_URL is required when FITPOSE_MODE=production"))
		}
	case ModeLocal:
	default:
		errs = append(errs, fmt.Errorf("FITPOSE_MODE must be %q or %q, got %q", ModeProduction, ModeLocal, c.Analysis.Mode))
	}
	if base := c.Analysis.BaseURL(); base != "" {
		if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("analysis service URL %q is not absolute", base))
		}
	}
	if c.Archive.Enabled && c.Storage.Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET is required when ARCHIVE_ENABLED=true"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
	return level, nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
