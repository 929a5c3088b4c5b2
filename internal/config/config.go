// Package config resolves runtime settings from TADA_* environment
// variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/idilsaglam/tada/internal/api"
)

// DefaultTenant is used when no tenant is configured anywhere.
const DefaultTenant = "my-todo-app"

// IDKind selects the identifier type the remote assigns.
type IDKind string

const (
	IDNumeric IDKind = "numeric"
	IDString  IDKind = "string"
)

// TenantSource records where the tenant id came from.
type TenantSource string

const (
	SourceFlag    TenantSource = "flag"
	SourceEnv     TenantSource = "env/config"
	SourceSaved   TenantSource = "saved"
	SourceDefault TenantSource = "default"
)

type (
	Config struct {
		API
		Log

		// ConfigFile is the config file that was read, if any.
		ConfigFile string
	}

	API struct {
		BaseURL      string
		Tenant       string
		TenantSource TenantSource
		Images       api.ImageRoute
		IDKind       IDKind
		Timeout      time.Duration
	}

	Log struct {
		Level  string
		Format string
		File   string
	}
)

// Load reads configuration. Environment variables take the form TADA_<KEY>
// (TADA_API_URL, TADA_TENANT_ID, ...). A config.{toml,yaml,json} in
// ~/.tada or the working directory is read when present.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("tada")
	v.AutomaticEnv()

	v.SetDefault("api_url", api.DefaultBaseURL)
	v.SetDefault("image_route", string(api.ImageRouteTenant))
	v.SetDefault("id_kind", string(IDNumeric))
	v.SetDefault("timeout", "10s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_file", "")
	// tenant_id has no default here; see ResolveTenant.

	v.SetConfigName("config")
	if dir, err := Dir(); err == nil {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	idKind, err := parseIDKind(v.GetString("id_kind"))
	if err != nil {
		return nil, err
	}
	timeout := v.GetDuration("timeout")
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid timeout %q", v.GetString("timeout"))
	}

	return &Config{
		API: API{
			BaseURL: v.GetString("api_url"),
			Tenant:  strings.TrimSpace(v.GetString("tenant_id")),
			Images:  api.ParseImageRoute(v.GetString("image_route")),
			IDKind:  idKind,
			Timeout: timeout,
		},
		Log: Log{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
			File:   v.GetString("log_file"),
		},
		ConfigFile: v.ConfigFileUsed(),
	}, nil
}

// ResolveTenant picks the tenant once: flag, then env/config, then the
// saved selection, then DefaultTenant.
func (c *Config) ResolveTenant(flag, saved string) {
	switch {
	case strings.TrimSpace(flag) != "":
		c.Tenant, c.TenantSource = strings.TrimSpace(flag), SourceFlag
	case c.Tenant != "":
		c.TenantSource = SourceEnv
	case strings.TrimSpace(saved) != "":
		c.Tenant, c.TenantSource = strings.TrimSpace(saved), SourceSaved
	default:
		c.Tenant, c.TenantSource = DefaultTenant, SourceDefault
	}
}

// ClientOptions maps the config onto api.Options.
func (c *Config) ClientOptions() api.Options {
	return api.Options{
		BaseURL: c.BaseURL,
		Tenant:  c.Tenant,
		Images:  c.Images,
		Timeout: c.Timeout,
	}
}

// Dir is the per-user directory for tada's files (~/.tada).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tada"), nil
}

func parseIDKind(s string) (IDKind, error) {
	switch IDKind(strings.ToLower(strings.TrimSpace(s))) {
	case IDNumeric, "number", "int":
		return IDNumeric, nil
	case IDString, "uuid":
		return IDString, nil
	}
	return "", fmt.Errorf("invalid id kind %q (want numeric or string)", s)
}
