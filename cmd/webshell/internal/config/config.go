package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest file names, in lookup order.
const (
	JSONFile = "webshell.config.json"
	YAMLFile = "webshell.config.yaml"
)

// ErrNotFound is returned when a directory holds no manifest.
var ErrNotFound = errors.New("no webshell.config.json or webshell.config.yaml found")

// Format identifies the encoding of a manifest file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatOf returns the manifest format implied by a file name.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Config is the app-shell manifest.
//
// Values are treated as immutable once loaded. Methods that derive a
// variant (WithDevServer, WithoutServer) return a new Config.
type Config struct {
	AppID             string        `json:"appId" yaml:"appId"`
	AppName           string        `json:"appName" yaml:"appName"`
	WebDir            string        `json:"webDir" yaml:"webDir"`
	BundledWebRuntime bool          `json:"bundledWebRuntime" yaml:"bundledWebRuntime"`
	Server            *ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`
}

// ServerConfig is the development-only override block.
//
// Cleartext and AllowNavigation keep an explicit false or empty value
// distinct from an absent key so a rewritten manifest keeps its keys.
type ServerConfig struct {
	URL             string     `json:"url,omitempty" yaml:"url,omitempty"`
	Hostname        string     `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	AndroidScheme   string     `json:"androidScheme,omitempty" yaml:"androidScheme,omitempty"`
	Cleartext       *bool      `json:"cleartext,omitempty" yaml:"cleartext,omitempty"`
	AllowNavigation Navigation `json:"allowNavigation,omitzero" yaml:"allowNavigation,omitempty"`
}

// Navigation is the allowNavigation list.
type Navigation []string

// IsZero reports whether the list is absent. An empty list is not zero.
func (n Navigation) IsZero() bool {
	return n == nil
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

var requiredKeys = []string{"appId", "appName", "webDir", "bundledWebRuntime"}

// Resolved is a loaded and validated manifest together with where it came from.
type Resolved struct {
	Root   string
	Path   string
	Config *Config
}

// WebDirPath returns the absolute path of the web asset directory.
func (r *Resolved) WebDirPath() string {
	return filepath.Join(r.Root, filepath.FromSlash(r.Config.WebDir))
}

// Find returns the manifest path inside dir.
func Find(dir string) (string, error) {
	var found []string
	for _, name := range []string{JSONFile, YAMLFile} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			found = append(found, path)
		}
	}

	switch len(found) {
	case 0:
		return "", ErrNotFound
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("both %s and %s exist in %s; remove one", JSONFile, YAMLFile, dir)
	}
}

// Load reads and decodes the manifest in dir. Environment overrides
// and validation are left to Resolve.
func Load(dir string) (*Config, string, error) {
	path, err := Find(dir)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	cfg, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	return cfg, path, nil
}

// Resolve loads the manifest in dir, applies environment overrides and
// validates the result.
func Resolve(dir string) (*Resolved, error) {
	cfg, path, err := Load(dir)
	if err != nil {
		return nil, err
	}

	overrides, err := LoadOverrides()
	if err != nil {
		return nil, err
	}

	cfg, err = overrides.Apply(cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Resolved{Root: dir, Path: path, Config: cfg}, nil
}

// Parse decodes a manifest. Required keys must be present even when they
// hold zero values.
func Parse(data []byte, format Format) (*Config, error) {
	var (
		raw map[string]any
		cfg Config
	)

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, err
		}
	}

	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return nil, &ValidationError{Field: key, Reason: "is required"}
		}
	}

	return &cfg, nil
}

// FindProjectRoot walks up from the current directory to find a manifest.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := Find(dir); err == nil {
			return dir, nil
		} else if !errors.Is(err, ErrNotFound) {
			return "", err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a webshell project (%w)", ErrNotFound)
		}
		dir = parent
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	if c.Server != nil {
		server := *c.Server
		server.AllowNavigation = slices.Clone(c.Server.AllowNavigation)
		if c.Server.Cleartext != nil {
			server.Cleartext = Bool(*c.Server.Cleartext)
		}
		out.Server = &server
	}
	return &out
}

// WithoutServer returns a copy of c with the server block removed.
func (c *Config) WithoutServer() *Config {
	out := c.Clone()
	out.Server = nil
	return out
}

// WithDevServer returns a copy of c that loads its content from rawURL.
// Cleartext is enabled for http URLs and the server origin is added to
// allowNavigation.
func (c *Config) WithDevServer(rawURL string) (*Config, error) {
	origin, err := ParseOrigin(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid dev server url: %w", err)
	}
	if origin.Scheme == "" {
		return nil, fmt.Errorf("invalid dev server url %q: scheme is required", rawURL)
	}

	out := c.Clone()
	if out.Server == nil {
		out.Server = &ServerConfig{}
	}
	out.Server.URL = strings.TrimSpace(rawURL)
	if origin.Scheme == "http" {
		out.Server.Cleartext = Bool(true)
	}
	out.Server.AllowNavigation = out.Server.AllowNavigation.add(origin.Host)
	return out, nil
}

// Hostname returns the host of the bundled-asset origin.
func (c *Config) Hostname() string {
	if c.Server != nil && c.Server.Hostname != "" {
		return c.Server.Hostname
	}
	return "localhost"
}

// AndroidScheme returns the scheme of the bundled-asset origin on Android.
func (c *Config) AndroidScheme() string {
	if c.Server != nil && c.Server.AndroidScheme != "" {
		return c.Server.AndroidScheme
	}
	return "https"
}

// Cleartext reports whether plain HTTP is allowed.
func (c *Config) Cleartext() bool {
	return c.Server != nil && c.Server.Cleartext != nil && *c.Server.Cleartext
}

// AllowNavigation returns the navigation allow-list, or nil.
func (c *Config) AllowNavigation() []string {
	if c.Server == nil {
		return nil
	}
	return c.Server.AllowNavigation
}

// add appends entry unless an entry naming the same origin is present.
func (n Navigation) add(entry string) Navigation {
	key := originKey(entry)
	for _, v := range n {
		if originKey(v) == key {
			return n
		}
	}
	return append(n, entry)
}

// originKey is the normalized form used to compare allowNavigation entries.
func originKey(entry string) string {
	if o, err := ParseOrigin(entry); err == nil {
		return o.String()
	}
	return strings.ToLower(strings.TrimSpace(entry))
}
