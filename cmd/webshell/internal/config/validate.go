package config

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// ValidationError describes the first manifest field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the manifest for values the native toolchains reject.
func (c *Config) Validate() error {
	if err := validateAppID(c.AppID); err != nil {
		return err
	}

	if strings.TrimSpace(c.AppName) == "" {
		return invalid("appName", "must not be empty")
	}

	if err := validateWebDir(c.WebDir); err != nil {
		return err
	}

	if c.Server == nil {
		return nil
	}

	return c.Server.validate()
}

func (s *ServerConfig) validate() error {
	if s.URL != "" {
		u, err := url.Parse(s.URL)
		if err != nil {
			return invalid("server.url", "is not a valid URL: %v", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return invalid("server.url", "must use http or https (got %q)", s.URL)
		}
		if u.Host == "" {
			return invalid("server.url", "must include a host (got %q)", s.URL)
		}
		if u.Scheme == "http" && (s.Cleartext == nil || !*s.Cleartext) {
			return invalid("server.url", "uses http but server.cleartext is not enabled")
		}
	}

	if s.Hostname != "" {
		if _, err := normalizeHost(s.Hostname); err != nil {
			return invalid("server.hostname", "is not a valid host: %v", err)
		}
	}

	switch s.AndroidScheme {
	case "", "http", "https":
	default:
		return invalid("server.androidScheme", "must be http or https (got %q)", s.AndroidScheme)
	}

	seen := make(map[string]bool, len(s.AllowNavigation))
	for i, entry := range s.AllowNavigation {
		o, err := ParseOrigin(entry)
		if err != nil {
			return invalid(fmt.Sprintf("server.allowNavigation[%d]", i), "%v", err)
		}
		key := o.String()
		if seen[key] {
			return invalid(fmt.Sprintf("server.allowNavigation[%d]", i), "duplicates an earlier entry (%q)", entry)
		}
		seen[key] = true
	}

	return nil
}

func validateAppID(appID string) error {
	if !strings.Contains(appID, ".") {
		return invalid("appId", "must contain at least one '.' (got %q)", appID)
	}
	segments := strings.Split(appID, ".")
	for _, segment := range segments {
		if segment == "" {
			return invalid("appId", "contains an empty segment (%q)", appID)
		}
		if segment[0] >= '0' && segment[0] <= '9' {
			return invalid("appId", "segments cannot start with a digit (%q)", appID)
		}
		if segment[0] == '_' {
			return invalid("appId", "segments cannot start with '_' (%q)", appID)
		}
		for _, r := range segment {
			if !(r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
				return invalid("appId", "contains invalid character %q in %q", r, appID)
			}
		}
	}
	return nil
}

func validateWebDir(dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return invalid("webDir", "must not be empty")
	}
	if filepath.IsAbs(dir) || path.IsAbs(dir) || filepath.VolumeName(dir) != "" {
		return invalid("webDir", "must be relative to the project root (got %q)", dir)
	}
	clean := path.Clean(filepath.ToSlash(dir))
	if clean == "." {
		return invalid("webDir", "must name a subdirectory, not the project root")
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return invalid("webDir", "must not leave the project root (got %q)", dir)
	}
	return nil
}

// SanitizeAppID turns an arbitrary name into an appId segment.
func SanitizeAppID(name string) string {
	return "com.example." + sanitizeSegment(name, false)
}

func sanitizeSegment(segment string, allowLeadingDigit bool) string {
	segment = strings.TrimSpace(segment)

	var out []rune
	for _, r := range segment {
		switch {
		case r >= 'a' && r <= 'z':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r >= '0' && r <= '9':
			out = append(out, r)
		}
	}

	if len(out) == 0 {
		out = []rune("app")
	}

	if !allowLeadingDigit && out[0] >= '0' && out[0] <= '9' {
		out = append([]rune{'a'}, out...)
	}

	return string(out)
}
