package config

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/net/idna"
)

// Origin is a parsed allowNavigation entry or server URL origin.
// Scheme and Port are empty when the entry does not constrain them.
type Origin struct {
	Scheme   string `json:"scheme,omitempty"`
	Host     string `json:"host"`
	Port     string `json:"port,omitempty"`
	Wildcard bool   `json:"wildcard,omitempty"`
}

// String renders the origin in the form it was written.
func (o Origin) String() string {
	var b strings.Builder
	if o.Scheme != "" {
		b.WriteString(o.Scheme)
		b.WriteString("://")
	}
	if o.Wildcard {
		b.WriteString("*.")
	}
	if strings.Contains(o.Host, ":") {
		b.WriteString("[" + o.Host + "]")
	} else {
		b.WriteString(o.Host)
	}
	if o.Port != "" {
		b.WriteString(":" + o.Port)
	}
	return b.String()
}

// ParseOrigin parses a host pattern ("example.com", "*.example.com",
// "10.0.2.2:8080") or an origin ("http://192.168.1.20:8080").
// Paths, queries, fragments and userinfo are rejected.
func ParseOrigin(raw string) (Origin, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Origin{}, fmt.Errorf("origin is empty")
	}

	var o Origin
	hostport := trimmed
	if strings.Contains(trimmed, "://") {
		u, err := url.Parse(trimmed)
		if err != nil {
			return Origin{}, fmt.Errorf("invalid origin %q: %w", raw, err)
		}
		scheme := strings.ToLower(u.Scheme)
		if scheme != "http" && scheme != "https" {
			return Origin{}, fmt.Errorf("origin %q must use http or https", raw)
		}
		if u.User != nil {
			return Origin{}, fmt.Errorf("origin %q must not include userinfo", raw)
		}
		if u.Path != "" && u.Path != "/" {
			return Origin{}, fmt.Errorf("origin %q must not include a path", raw)
		}
		if u.RawQuery != "" || u.Fragment != "" {
			return Origin{}, fmt.Errorf("origin %q must not include a query or fragment", raw)
		}
		o.Scheme = scheme
		hostport = u.Host
	} else if strings.ContainsAny(trimmed, "/?#@") {
		return Origin{}, fmt.Errorf("origin %q must be a host pattern or scheme://host[:port]", raw)
	}

	host, port, err := splitHostPort(hostport)
	if err != nil {
		return Origin{}, fmt.Errorf("invalid origin %q: %w", raw, err)
	}

	if strings.HasPrefix(host, "*.") {
		o.Wildcard = true
		host = strings.TrimPrefix(host, "*.")
	}
	if strings.Contains(host, "*") {
		return Origin{}, fmt.Errorf("origin %q: wildcard is only allowed as the leading label", raw)
	}

	host, err = normalizeHost(host)
	if err != nil {
		return Origin{}, fmt.Errorf("invalid origin %q: %w", raw, err)
	}
	if o.Wildcard && net.ParseIP(host) != nil {
		return Origin{}, fmt.Errorf("origin %q: wildcard cannot be applied to an IP address", raw)
	}

	o.Host = host
	o.Port = port
	return o, nil
}

// Matches reports whether u may be navigated to under this origin.
func (o Origin) Matches(u *url.URL) bool {
	if u == nil || u.Host == "" {
		return false
	}
	if o.Scheme != "" && !strings.EqualFold(o.Scheme, u.Scheme) {
		return false
	}
	if o.Port != "" && o.Port != effectivePort(u) {
		return false
	}

	host, err := normalizeHost(u.Hostname())
	if err != nil {
		return false
	}
	if o.Wildcard {
		return strings.HasSuffix(host, "."+o.Host)
	}
	return host == o.Host
}

// AllowsNavigation reports whether the shell may open rawURL in place
// rather than handing it to the system browser.
func (c *Config) AllowsNavigation(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	for _, o := range c.NavigationOrigins() {
		if o.Matches(u) {
			return true
		}
	}
	return false
}

// NavigationOrigins returns the normalized origins the shell opens in
// place: the bundled-asset host, the server URL origin and every valid
// allowNavigation entry. The native shells match against this list.
func (c *Config) NavigationOrigins() []Origin {
	var origins []Origin
	if host, err := normalizeHost(c.Hostname()); err == nil {
		origins = append(origins, Origin{Host: host})
	}
	if c.Server == nil {
		return origins
	}

	if c.Server.URL != "" {
		if o, err := ParseOrigin(c.Server.URL); err == nil {
			origins = append(origins, o)
		}
	}
	for _, entry := range c.Server.AllowNavigation {
		if o, err := ParseOrigin(entry); err == nil {
			origins = append(origins, o)
		}
	}
	return origins
}

// NavigationHosts returns the distinct hosts named by allowNavigation and
// the server URL, wildcard prefix stripped.
func (c *Config) NavigationHosts() []string {
	if c.Server == nil {
		return nil
	}

	var hosts []string
	add := func(raw string) {
		o, err := ParseOrigin(raw)
		if err != nil || slices.Contains(hosts, o.Host) {
			return
		}
		hosts = append(hosts, o.Host)
	}
	if c.Server.URL != "" {
		add(c.Server.URL)
	}
	for _, entry := range c.Server.AllowNavigation {
		add(entry)
	}
	return hosts
}

func splitHostPort(hostport string) (string, string, error) {
	if hostport == "" {
		return "", "", fmt.Errorf("host is empty")
	}
	if strings.HasPrefix(hostport, "[") {
		host, port, err := net.SplitHostPort(hostport)
		if err != nil {
			if strings.HasSuffix(hostport, "]") {
				return strings.Trim(hostport, "[]"), "", nil
			}
			return "", "", err
		}
		return host, port, nil
	}
	if strings.Count(hostport, ":") == 1 {
		host, port, err := net.SplitHostPort(hostport)
		if err != nil {
			return "", "", err
		}
		if port == "" {
			return "", "", fmt.Errorf("port is empty")
		}
		for _, r := range port {
			if r < '0' || r > '9' {
				return "", "", fmt.Errorf("port %q is not numeric", port)
			}
		}
		return host, port, nil
	}
	return hostport, "", nil
}

func normalizeHost(host string) (string, error) {
	host = strings.TrimSuffix(strings.TrimSpace(host), ".")
	if host == "" {
		return "", fmt.Errorf("host is empty")
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}
	if strings.Contains(host, ":") {
		return "", fmt.Errorf("host %q is not a valid IP address", host)
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", err
	}
	return strings.ToLower(ascii), nil
}

func effectivePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		return "80"
	case "https":
		return "443"
	}
	return ""
}
