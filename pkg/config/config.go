// Package config loads the portwalk site directory and credential chain.
//
// Sites and options come from a YAML file (default ~/.portwalk/config.yaml).
// Credentials are sourced from the environment first, mirroring the usual
// NOC deployment where switch passwords never land on disk:
//
//	PORTWALK_USERNAME / PORTWALK_PASSWORD          primary credentials
//	PORTWALK_FALLBACK_USER1..4 / _PASS1..4 / _SECRET1..4
//
// File-declared credentials (if any) are appended after the environment chain.
// The resulting Config is passed explicitly into entry points; there is no
// process-wide mutable state.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const maxFallbacks = 4

// Credential is one username/password pair in the fallback chain. EnableSecret
// is optional; when present the session enters privileged mode after login.
type Credential struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	EnableSecret string `yaml:"enable_secret,omitempty"`
}

// Site names a location and its core switches. Cores are tried in order until
// one answers and holds the target MAC.
type Site struct {
	Name  string   `yaml:"name"`
	Cores []string `yaml:"cores"`
}

// Config is the full portwalk configuration.
type Config struct {
	Sites       []Site       `yaml:"sites"`
	Credentials []Credential `yaml:"credentials,omitempty"`

	// LockRedis is a host:port of a Redis instance used for per-device
	// operator locks. Empty disables locking.
	LockRedis string `yaml:"lock_redis,omitempty"`

	// AuditDB is the path of the sqlite audit database. Empty disables
	// audit recording.
	AuditDB string `yaml:"audit_db,omitempty"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".portwalk", "config.yaml")
}

// Load reads the YAML config at path and prepends the environment credential
// chain. A missing file is not an error when the environment supplies
// credentials; the site list is simply empty.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// proceed with env-only config
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg.Credentials = append(credentialsFromEnv(), cfg.Credentials...)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	seen := make(map[string]bool)
	for _, s := range c.Sites {
		if s.Name == "" {
			return fmt.Errorf("site with empty name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate site %q", s.Name)
		}
		seen[s.Name] = true
		if len(s.Cores) == 0 {
			return fmt.Errorf("site %q has no core switches", s.Name)
		}
	}
	return nil
}

// Site returns the named site.
func (c *Config) Site(name string) (*Site, bool) {
	for i := range c.Sites {
		if c.Sites[i].Name == name {
			return &c.Sites[i], true
		}
	}
	return nil, false
}

// credentialsFromEnv builds the credential chain from PORTWALK_* environment
// variables: the primary pair first, then up to four fallback sets. Fallback
// sets missing either the username or the password are skipped.
func credentialsFromEnv() []Credential {
	v := viper.New()
	v.SetEnvPrefix("portwalk")
	v.AutomaticEnv()

	var chain []Credential

	if user, pass := v.GetString("username"), v.GetString("password"); user != "" && pass != "" {
		chain = append(chain, Credential{Username: user, Password: pass})
	}

	for i := 1; i <= maxFallbacks; i++ {
		user := v.GetString(fmt.Sprintf("fallback_user%d", i))
		pass := v.GetString(fmt.Sprintf("fallback_pass%d", i))
		if user == "" || pass == "" {
			continue
		}
		chain = append(chain, Credential{
			Username:     user,
			Password:     pass,
			EnableSecret: v.GetString(fmt.Sprintf("fallback_secret%d", i)),
		})
	}

	return chain
}
