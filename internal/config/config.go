package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration of the contacts service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Mail     MailConfig     `yaml:"mail"`
	Export   ExportConfig   `yaml:"export"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ServerConfig struct {
	Port        string        `yaml:"port"`
	GinLogging  bool          `yaml:"gin_logging"`
	WarmupDelay time.Duration `yaml:"warmup_delay"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// AuthConfig holds the shared secret of the identity provider. Bearer tokens are HS256 JWTs
// whose subject is the id of the calling user.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// MailConfig points at the REST endpoint of the transactional email provider.
type MailConfig struct {
	APIURL string `yaml:"api_url"`
	APIKey string `yaml:"api_key"`
	From   string `yaml:"from"`
}

// ExportConfig decides how dates are rendered in the CSV export.
type ExportConfig struct {
	Locale   string `yaml:"locale"`
	Timezone string `yaml:"timezone"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Path      string `yaml:"path"`
}

// Load reads the YAML file at path, applies defaults and environment overrides and validates
// the result. An empty path skips the file, so the service can be configured by environment
// variables alone.
//
// Usage example:
//
//	> PORT=8080 DBHOST=localhost DBUSER=dirk DBPWD=bullo92 JWT_SECRET=... go run main.go
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path) // nosemgrep
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when nothing else is specified.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			GinLogging:  true,
			WarmupDelay: 100 * time.Millisecond,
		},
		Database: DatabaseConfig{
			Host: "localhost:3306",
			Name: "test",
		},
		Mail: MailConfig{
			APIURL: "https://api.resend.com/emails",
			From:   "Guard Contatos <onboarding@resend.dev>",
		},
		Export: ExportConfig{
			Locale:   "pt-BR",
			Timezone: "America/Sao_Paulo",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "contacts",
			Path:      "/metrics",
		},
	}
}

// applyEnvOverrides lets the environment variables win over the file. The variable names are
// the ones the service has always used.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("PORT"); val != "" {
		cfg.Server.Port = val
	}
	if strings.EqualFold(os.Getenv("GIN_LOGGING"), "off") {
		cfg.Server.GinLogging = false
	}
	if val := os.Getenv("DBHOST"); val != "" {
		cfg.Database.Host = val
	}
	if val := os.Getenv("DBUSER"); val != "" {
		cfg.Database.User = val
	}
	if val := os.Getenv("DBPWD"); val != "" {
		cfg.Database.Password = val
	}
	if val := os.Getenv("DBNAME"); val != "" {
		cfg.Database.Name = val
	}
	if val := os.Getenv("JWT_SECRET"); val != "" {
		cfg.Auth.JWTSecret = val
	}
	if val := os.Getenv("MAIL_API_URL"); val != "" {
		cfg.Mail.APIURL = val
	}
	if val := os.Getenv("MAIL_API_KEY"); val != "" {
		cfg.Mail.APIKey = val
	}
	if val := os.Getenv("MAIL_FROM"); val != "" {
		cfg.Mail.From = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
}

// Validate checks the values that would otherwise only fail at request time.
func (c *Config) Validate() error {
	var errs []error
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		errs = append(errs, fmt.Errorf("could not parse port %q", c.Server.Port))
	}
	if c.Server.WarmupDelay < 0 {
		errs = append(errs, errors.New("warmup_delay must not be negative"))
	}
	if _, err := c.Export.LanguageTag(); err != nil {
		errs = append(errs, err)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics path %q must start with /", c.Metrics.Path))
	}
	return errors.Join(errs...)
}

// LanguageTag parses the configured export locale.
func (e ExportConfig) LanguageTag() (language.Tag, error) {
	tag, err := language.Parse(e.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("invalid export locale %q: %w", e.Locale, err)
	}
	return tag, nil
}

// Location loads the configured time zone. If the zone database does not know it, UTC is used.
func (e ExportConfig) Location() *time.Location {
	if e.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
