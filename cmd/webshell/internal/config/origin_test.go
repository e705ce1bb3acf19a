package config

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseOrigin(t *testing.T) {
	tests := []struct {
		input   string
		want    Origin
		wantErr bool
	}{
		{input: "example.com", want: Origin{Host: "example.com"}},
		{input: "Example.COM.", want: Origin{Host: "example.com"}},
		{input: "*.example.com", want: Origin{Host: "example.com", Wildcard: true}},
		{input: "192.168.1.20", want: Origin{Host: "192.168.1.20"}},
		{input: "10.0.2.2:8080", want: Origin{Host: "10.0.2.2", Port: "8080"}},
		{input: "http://192.168.1.20:8080", want: Origin{Scheme: "http", Host: "192.168.1.20", Port: "8080"}},
		{input: "https://bücher.example/", want: Origin{Scheme: "https", Host: "xn--bcher-kva.example"}},
		{input: "http://[::1]:3000", want: Origin{Scheme: "http", Host: "::1", Port: "3000"}},

		{input: "", wantErr: true},
		{input: "ftp://example.com", wantErr: true},
		{input: "http://example.com/app", wantErr: true},
		{input: "http://example.com?x=1", wantErr: true},
		{input: "http://user@example.com", wantErr: true},
		{input: "example.com/app", wantErr: true},
		{input: "foo.*.example.com", wantErr: true},
		{input: "*.10.0.0.1", wantErr: true},
		{input: "example.com:http", wantErr: true},
		{input: "exa mple.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOrigin(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOrigin(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseOrigin(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestOriginString(t *testing.T) {
	for _, in := range []string{"example.com", "*.example.com", "http://10.0.2.2:8080", "http://[::1]:3000"} {
		o, err := ParseOrigin(in)
		if err != nil {
			t.Fatalf("ParseOrigin(%q): %v", in, err)
		}
		if got := o.String(); got != in {
			t.Errorf("String() = %q, want %q", got, in)
		}
	}
}

func TestOriginMatches(t *testing.T) {
	tests := []struct {
		origin string
		url    string
		want   bool
	}{
		{"example.com", "https://example.com/page", true},
		{"example.com", "http://example.com:8080/", true},
		{"example.com", "https://www.example.com/", false},
		{"*.example.com", "https://www.example.com/", true},
		{"*.example.com", "https://a.b.example.com/", true},
		{"*.example.com", "https://example.com/", false},
		{"http://10.0.2.2:8080", "http://10.0.2.2:8080/index.html", true},
		{"http://10.0.2.2:8080", "https://10.0.2.2:8080/", false},
		{"http://10.0.2.2:8080", "http://10.0.2.2:9090/", false},
		{"https://example.com", "https://example.com/", true},
		{"example.com:443", "https://example.com/", true},
	}

	for _, tt := range tests {
		t.Run(tt.origin+" "+tt.url, func(t *testing.T) {
			o, err := ParseOrigin(tt.origin)
			if err != nil {
				t.Fatal(err)
			}
			u, err := url.Parse(tt.url)
			if err != nil {
				t.Fatal(err)
			}
			if got := o.Matches(u); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllowsNavigation(t *testing.T) {
	release := &Config{AppID: "com.hacker.wordle", AppName: "wordle", WebDir: "public"}
	dev := release.Clone()
	dev.Server = &ServerConfig{
		Cleartext:       Bool(true),
		AllowNavigation: []string{"192.168.1.20"},
	}

	tests := []struct {
		name string
		cfg  *Config
		url  string
		want bool
	}{
		{"bundled origin", release, "https://localhost/index.html", true},
		{"release external", release, "http://192.168.1.20:8080/", false},
		{"dev allowed", dev, "http://192.168.1.20:8080/", true},
		{"dev other host", dev, "http://192.168.1.21/", false},
		{"relative", dev, "/index.html", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.AllowsNavigation(tt.url); got != tt.want {
				t.Errorf("AllowsNavigation(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestNavigationHosts(t *testing.T) {
	cfg := &Config{Server: &ServerConfig{
		URL:             "http://10.0.2.2:8080",
		AllowNavigation: []string{"*.example.com", "10.0.2.2", "example.org"},
	}}
	got := cfg.NavigationHosts()
	want := []string{"10.0.2.2", "example.com", "example.org"}
	if len(got) != len(want) {
		t.Fatalf("NavigationHosts = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NavigationHosts[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if hosts := (&Config{}).NavigationHosts(); hosts != nil {
		t.Errorf("expected nil hosts without server block, got %v", hosts)
	}
}

func TestNavigationOrigins(t *testing.T) {
	cfg := &Config{Server: &ServerConfig{
		URL:             "http://10.0.2.2:8080",
		Hostname:        "App.Local",
		AllowNavigation: []string{"*.Example.com", "https://[::1]:8443"},
	}}
	want := []Origin{
		{Host: "app.local"},
		{Scheme: "http", Host: "10.0.2.2", Port: "8080"},
		{Host: "example.com", Wildcard: true},
		{Scheme: "https", Host: "::1", Port: "8443"},
	}
	if diff := cmp.Diff(want, cfg.NavigationOrigins()); diff != "" {
		t.Errorf("NavigationOrigins mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		url  string
		want bool
	}{
		{"https://app.local/index.html", true},
		{"http://10.0.2.2:8080/", true},
		{"https://10.0.2.2:8080/", false},
		{"http://10.0.2.2:9000/", false},
		{"https://api.example.com/", true},
		{"https://example.com/", false},
		{"https://[::1]:8443/", true},
		{"https://[::1]:443/", false},
	}
	for _, tt := range tests {
		if got := cfg.AllowsNavigation(tt.url); got != tt.want {
			t.Errorf("AllowsNavigation(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
