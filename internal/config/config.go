// Package config loads gateway configuration from an optional config.yaml
// overlaid with GATEWAY_-prefixed environment variables.
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/consultly/gateway/internal/tenant"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Auth      AuthConfig      `koanf:"auth"`
	Users     UsersConfig     `koanf:"users"`
	Email     EmailConfig     `koanf:"email"`
	Tenants   []tenant.Config `koanf:"tenants"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type RateLimitConfig struct {
	// RedisURL selects the shared Redis counter store. Empty selects the
	// single-process in-memory store.
	RedisURL string `koanf:"redis_url"`
}

type AuthConfig struct {
	// DefaultTenant applies when a request carries no X-Client-ID header.
	DefaultTenant string `koanf:"default_tenant"`
}

type UsersConfig struct {
	// SQLitePath is the user directory database file.
	SQLitePath string `koanf:"sqlite_path"`
}

type EmailConfig struct {
	PostmarkServerToken  string `koanf:"postmark_server_token"`
	PostmarkAccountToken string `koanf:"postmark_account_token"`
	From                 string `koanf:"from"`
}

// Load reads config.yaml when present, then overlays environment variables:
// GATEWAY_SERVER__PORT=9000 maps to server.port, and so on.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile is Load with an explicit file path, for tests.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// A missing file is fine; env vars carry the config.
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("GATEWAY_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "GATEWAY_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("auth.default_tenant") {
		k.Set("auth.default_tenant", "default")
	}
	if !k.Exists("users.sqlite_path") {
		k.Set("users.sqlite_path", "gateway.db")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
