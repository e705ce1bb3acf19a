package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Overrides are development-time adjustments read from the environment.
type Overrides struct {
	ServerURL       string   `env:"WEBSHELL_SERVER_URL"`
	AllowNavigation []string `env:"WEBSHELL_ALLOW_NAVIGATION" envSeparator:","`
	Cleartext       bool     `env:"WEBSHELL_CLEARTEXT"`
}

// LoadOverrides parses manifest overrides from the environment.
func LoadOverrides() (Overrides, error) {
	var o Overrides
	if err := env.Parse(&o); err != nil {
		return Overrides{}, fmt.Errorf("failed to parse environment overrides: %w", err)
	}
	return o, nil
}

// Empty reports whether no override is set.
func (o Overrides) Empty() bool {
	return o.ServerURL == "" && len(o.AllowNavigation) == 0 && !o.Cleartext
}

// Apply returns cfg with the overrides applied. cfg is returned unchanged
// when no override is set.
func (o Overrides) Apply(cfg *Config) (*Config, error) {
	if o.Empty() {
		return cfg, nil
	}

	out := cfg.Clone()
	if o.ServerURL != "" {
		var err error
		out, err = out.WithDevServer(o.ServerURL)
		if err != nil {
			return nil, fmt.Errorf("WEBSHELL_SERVER_URL: %w", err)
		}
	}

	if len(o.AllowNavigation) > 0 || o.Cleartext {
		if out.Server == nil {
			out.Server = &ServerConfig{}
		}
	}
	for _, entry := range o.AllowNavigation {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, err := ParseOrigin(entry); err != nil {
			return nil, fmt.Errorf("WEBSHELL_ALLOW_NAVIGATION: %w", err)
		}
		out.Server.AllowNavigation = out.Server.AllowNavigation.add(entry)
	}
	if o.Cleartext {
		out.Server.Cleartext = Bool(true)
	}

	return out, nil
}
