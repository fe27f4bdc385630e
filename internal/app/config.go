package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/cdk-backend/internal/clients/redis"
	"github.com/yungbote/cdk-backend/internal/data/db"
	"github.com/yungbote/cdk-backend/internal/observability"
	"github.com/yungbote/cdk-backend/internal/services"
)

// EnvPrefix namespaces every environment override, e.g. CDK_DATABASE_HOST.
const EnvPrefix = "CDK"

const defaultJWTSecret = "change-me"

type ServerConfig struct {
	Addr            string        `yaml:"addr" envconfig:"ADDR"`
	Mode            string        `yaml:"mode" envconfig:"MODE"`
	CORSOrigins     []string      `yaml:"cors_origins" envconfig:"CORS_ORIGINS"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

type AuthConfig struct {
	JWTSecret   string `yaml:"jwt_secret" envconfig:"JWT_SECRET"`
	Issuer      string `yaml:"issuer" envconfig:"ISSUER"`
	InternalKey string `yaml:"internal_key" envconfig:"INTERNAL_KEY"`
}

type ClaimsConfig struct {
	// VerifiedSource is the identity source a project's verified-identity
	// rule accepts.
	VerifiedSource string               `yaml:"verified_source" envconfig:"VERIFIED_SOURCE"`
	Limits         services.ClaimLimits `yaml:"limits" envconfig:"LIMITS"`
	// ReconcileInterval runs the reconcile sweep inside serve. Zero leaves
	// it to the reconcile command.
	ReconcileInterval time.Duration `yaml:"reconcile_interval" envconfig:"RECONCILE_INTERVAL"`
	// ReportHideThreshold hides a project after this many distinct user
	// reports. Zero disables hiding.
	ReportHideThreshold int64 `yaml:"report_hide_threshold" envconfig:"REPORT_HIDE_THRESHOLD"`
}

type Config struct {
	LogMode  string                      `yaml:"log_mode" envconfig:"LOG_MODE"`
	Server   ServerConfig                `yaml:"server" envconfig:"SERVER"`
	Database db.Config                   `yaml:"database" envconfig:"DATABASE"`
	Redis    redis.Config                `yaml:"redis" envconfig:"REDIS"`
	Auth     AuthConfig                  `yaml:"auth" envconfig:"AUTH"`
	Claims   ClaimsConfig                `yaml:"claims" envconfig:"CLAIMS"`
	Otel     observability.OtelConfig    `yaml:"otel" envconfig:"OTEL"`
	Metrics  observability.MetricsConfig `yaml:"metrics" envconfig:"METRICS"`
}

func DefaultConfig() Config {
	return Config{
		LogMode: "development",
		Server: ServerConfig{
			Addr:            ":8080",
			Mode:            "release",
			ShutdownTimeout: 15 * time.Second,
		},
		Database: db.Config{
			Driver:       db.DriverPostgres,
			Host:         "localhost",
			Port:         5432,
			User:         "postgres",
			Name:         "cdk",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Auth: AuthConfig{
			JWTSecret: defaultJWTSecret,
			Issuer:    "cdk",
		},
		Claims: ClaimsConfig{
			VerifiedSource:      "linuxdo",
			Limits:              services.DefaultClaimLimits(),
			ReconcileInterval:   10 * time.Minute,
			ReportHideThreshold: 5,
		},
		Otel: observability.OtelConfig{
			ServiceName: "cdk",
			SampleRatio: 1,
		},
		Metrics: observability.MetricsConfig{
			Enabled: true,
		},
	}
}

// LoadConfig starts from the defaults, overlays the YAML file when one is
// given and finally applies CDK_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path = strings.TrimSpace(path); path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.Driver() {
	case db.DriverPostgres:
		if strings.TrimSpace(c.Database.Host) == "" || strings.TrimSpace(c.Database.Name) == "" {
			errs = append(errs, errors.New("database: host and name are required for postgres"))
		}
	case db.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("database: unsupported driver %q", c.Database.Driver))
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server: addr is required"))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server: invalid mode %q", c.Server.Mode))
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("auth: jwt_secret is required"))
	}
	if isProdMode(c.LogMode) && c.Auth.JWTSecret == defaultJWTSecret {
		errs = append(errs, errors.New("auth: jwt_secret must be changed in production"))
	}
	l := c.Claims.Limits
	if l.PerWindow < 0 || l.PerTrustLevel < 0 || l.CreatePerWindow < 0 {
		errs = append(errs, errors.New("claims: rate limits must not be negative"))
	}
	if l.Window < 0 || l.SameIPTTL < 0 || c.Claims.ReconcileInterval < 0 {
		errs = append(errs, errors.New("claims: durations must not be negative"))
	}
	if c.Claims.ReportHideThreshold < 0 {
		errs = append(errs, errors.New("claims: report_hide_threshold must not be negative"))
	}
	if c.Otel.SampleRatio < 0 || c.Otel.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("otel: sample_ratio %v outside [0,1]", c.Otel.SampleRatio))
	}
	return errors.Join(errs...)
}

func isProdMode(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		return true
	}
	return false
}

// Driver reports the configured database driver, normalized.
func (c Config) Driver() string {
	d := strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if d == "" {
		return db.DriverPostgres
	}
	return d
}
