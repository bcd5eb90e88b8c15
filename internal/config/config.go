// Package config loads runtime configuration from environment variables.
//
// Every setting has a USERLOCALE_ prefixed variable and a default, so the
// server starts with no environment at all (auth then runs without GitHub
// sign-in and without a bootstrap administrator).
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is the full set of runtime settings.
type Config struct {
	Port   int    `env:"USERLOCALE_PORT"    envDefault:"8080"`
	DBPath string `env:"USERLOCALE_DB_PATH" envDefault:"data/userlocale.db"`

	// JWTSecret signs session cookies. Auth is disabled when empty.
	JWTSecret string `env:"USERLOCALE_JWT_SECRET"`

	GitHubClientID     string `env:"USERLOCALE_GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"USERLOCALE_GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `env:"USERLOCALE_GITHUB_CALLBACK_URL"`

	// SiteLocale seeds the site default locale on first start. After that the
	// general settings page owns the value.
	SiteLocale string `env:"USERLOCALE_SITE_LOCALE" envDefault:"en_US"`

	// Locales lists the installed locale identifiers offered on the profile form.
	Locales []string `env:"USERLOCALE_LOCALES" envSeparator:"," envDefault:"en_US,en_GB,de_DE,fr_FR,es_ES,ja,pt_BR"`

	// ExemptPages are page IDs that always render in the site locale.
	ExemptPages []string `env:"USERLOCALE_EXEMPT_PAGES" envSeparator:"," envDefault:"options-general.php"`

	AdminLogin    string   `env:"USERLOCALE_ADMIN_LOGIN"`
	AdminPassword string   `env:"USERLOCALE_ADMIN_PASSWORD"`
	AdminGitHub   []string `env:"USERLOCALE_ADMIN_GITHUB_LOGINS" envSeparator:","`

	LogLevel string `env:"USERLOCALE_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.SiteLocale = strings.TrimSpace(c.SiteLocale)
	c.Locales = trimAll(c.Locales)
	c.ExemptPages = trimAll(c.ExemptPages)
	c.AdminGitHub = trimAll(c.AdminGitHub)
	if c.GitHubCallbackURL == "" {
		c.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", c.Port)
	}
}

// Validate reports configuration that would prevent the server from starting.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("config: database path is required")
	}
	if c.SiteLocale == "" {
		return errors.New("config: site locale is required")
	}
	if len(c.Locales) == 0 {
		return errors.New("config: at least one installed locale is required")
	}
	if (c.AdminLogin == "") != (c.AdminPassword == "") {
		return errors.New("config: admin login and admin password must be set together")
	}
	return nil
}

// AuthEnabled reports whether session tokens can be issued.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// GitHubEnabled reports whether GitHub sign-in is configured.
func (c Config) GitHubEnabled() bool {
	return c.AuthEnabled() && c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
