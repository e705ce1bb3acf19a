package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const releaseManifest = `{
  "appId": "com.hacker.wordle",
  "appName": "wordle",
  "webDir": "public",
  "bundledWebRuntime": false
}
`

const devManifest = `{
  "appId": "com.hacker.wordle",
  "appName": "wordle",
  "webDir": "public",
  "bundledWebRuntime": false,
  "server": {
    "cleartext": true,
    "allowNavigation": [
      "192.168.1.20"
    ]
  }
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func keysOf(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return raw
}

func TestParse_ReferenceVariantsRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantServer bool
	}{
		{"release", releaseManifest, false},
		{"development", devManifest, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.input), FormatJSON)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate failed: %v", err)
			}
			if got := cfg.Server != nil; got != tt.wantServer {
				t.Fatalf("server present = %v, want %v", got, tt.wantServer)
			}

			out, err := Marshal(cfg, FormatJSON)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(out) != tt.input {
				t.Errorf("round trip changed manifest:\n%s", cmp.Diff(tt.input, string(out)))
			}
			if diff := cmp.Diff(keysOf(t, []byte(tt.input)), keysOf(t, out)); diff != "" {
				t.Errorf("keys/values differ (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_YAML(t *testing.T) {
	input := `appId: com.hacker.wordle
appName: wordle
webDir: public
bundledWebRuntime: false
server:
  cleartext: true
  allowNavigation:
    - 192.168.1.20
`
	cfg, err := Parse([]byte(input), FormatYAML)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := &Config{
		AppID:   "com.hacker.wordle",
		AppName: "wordle",
		WebDir:  "public",
		Server: &ServerConfig{
			Cleartext:       Bool(true),
			AllowNavigation: []string{"192.168.1.20"},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}

	out, err := Marshal(cfg, FormatYAML)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	again, err := Parse(out, FormatYAML)
	if err != nil {
		t.Fatalf("re-parse failed: %v\n%s", err, out)
	}
	if diff := cmp.Diff(cfg, again); diff != "" {
		t.Errorf("YAML round trip changed manifest (-want +got):\n%s", diff)
	}
}

func TestParse_MissingRequiredKey(t *testing.T) {
	for _, key := range requiredKeys {
		t.Run(key, func(t *testing.T) {
			raw := keysOf(t, []byte(releaseManifest))
			delete(raw, key)
			data, _ := json.Marshal(raw)

			_, err := Parse(data, FormatJSON)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != key {
				t.Errorf("Field = %q, want %q", verr.Field, key)
			}
		})
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	input := strings.Replace(releaseManifest, `"webDir"`, `"webDirectory": "x", "webDir"`, 1)
	if _, err := Parse([]byte(input), FormatJSON); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{AppID: "com.hacker.wordle", AppName: "wordle", WebDir: "public"}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"valid", func(c *Config) {}, ""},
		{"nested web dir", func(c *Config) { c.WebDir = "dist/app" }, ""},
		{"single segment id", func(c *Config) { c.AppID = "wordle" }, "appId"},
		{"empty segment", func(c *Config) { c.AppID = "com..wordle" }, "appId"},
		{"digit segment", func(c *Config) { c.AppID = "com.1hacker.wordle" }, "appId"},
		{"uppercase id", func(c *Config) { c.AppID = "com.Hacker.wordle" }, "appId"},
		{"hyphen id", func(c *Config) { c.AppID = "com.hacker.my-wordle" }, "appId"},
		{"blank name", func(c *Config) { c.AppName = "  " }, "appName"},
		{"empty web dir", func(c *Config) { c.WebDir = "" }, "webDir"},
		{"absolute web dir", func(c *Config) { c.WebDir = "/var/www" }, "webDir"},
		{"escaping web dir", func(c *Config) { c.WebDir = "../public" }, "webDir"},
		{"root web dir", func(c *Config) { c.WebDir = "." }, "webDir"},
		{"server url ftp", func(c *Config) { c.Server = &ServerConfig{URL: "ftp://example.com"} }, "server.url"},
		{"server url http without cleartext", func(c *Config) { c.Server = &ServerConfig{URL: "http://10.0.2.2:8080"} }, "server.url"},
		{"server url http with cleartext", func(c *Config) { c.Server = &ServerConfig{URL: "http://10.0.2.2:8080", Cleartext: Bool(true)} }, ""},
		{"android scheme", func(c *Config) { c.Server = &ServerConfig{AndroidScheme: "capacitor"} }, "server.androidScheme"},
		{"bad navigation entry", func(c *Config) {
			c.Server = &ServerConfig{AllowNavigation: []string{"example.com/path"}}
		}, "server.allowNavigation[0]"},
		{"duplicate navigation entry", func(c *Config) {
			c.Server = &ServerConfig{AllowNavigation: []string{"example.com", "EXAMPLE.com"}}
		}, "server.allowNavigation[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError for %s, got %v", tt.field, err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q (%v)", verr.Field, tt.field, err)
			}
		})
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	if _, err := Find(dir); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	yamlPath := writeFile(t, dir, YAMLFile, "appId: com.a.b\n")
	got, err := Find(dir)
	if err != nil || got != yamlPath {
		t.Fatalf("Find = %q, %v; want %q", got, err, yamlPath)
	}

	writeFile(t, dir, JSONFile, releaseManifest)
	if _, err := Find(dir); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ambiguity error, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, JSONFile, releaseManifest)

	res, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Config.Server != nil {
		t.Error("expected no server block without overrides")
	}
	if got, want := res.WebDirPath(), filepath.Join(dir, "public"); got != want {
		t.Errorf("WebDirPath = %q, want %q", got, want)
	}
}

func TestResolve_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, JSONFile, releaseManifest)

	t.Setenv("WEBSHELL_SERVER_URL", "http://192.168.1.20:5173")
	t.Setenv("WEBSHELL_ALLOW_NAVIGATION", "*.example.com, api.example.org")

	res, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := &ServerConfig{
		URL:             "http://192.168.1.20:5173",
		Cleartext:       Bool(true),
		AllowNavigation: []string{"192.168.1.20", "*.example.com", "api.example.org"},
	}
	if diff := cmp.Diff(want, res.Config.Server); diff != "" {
		t.Errorf("server mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_InvalidManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, JSONFile, strings.Replace(releaseManifest, "com.hacker.wordle", "wordle", 1))

	_, err := Resolve(dir)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "appId" {
		t.Fatalf("expected appId ValidationError, got %v", err)
	}
}

func TestWithDevServer_DoesNotMutateReceiver(t *testing.T) {
	cfg, err := Parse([]byte(devManifest), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	before := cfg.Clone()

	dev, err := cfg.WithDevServer("http://10.0.2.2:8080")
	if err != nil {
		t.Fatalf("WithDevServer failed: %v", err)
	}

	if diff := cmp.Diff(before, cfg); diff != "" {
		t.Errorf("receiver mutated (-before +after):\n%s", diff)
	}
	want := []string{"192.168.1.20", "10.0.2.2"}
	if diff := cmp.Diff(want, dev.AllowNavigation()); diff != "" {
		t.Errorf("allowNavigation mismatch (-want +got):\n%s", diff)
	}
	if !dev.Cleartext() {
		t.Error("expected cleartext for http dev server")
	}
	if err := dev.Validate(); err != nil {
		t.Errorf("dev variant failed validation: %v", err)
	}

	release := dev.WithoutServer()
	if release.Server != nil {
		t.Error("WithoutServer kept the server block")
	}
	if dev.Server == nil {
		t.Error("WithoutServer mutated its receiver")
	}
}

func TestWithDevServer_HTTPS(t *testing.T) {
	cfg := &Config{AppID: "com.a.b", AppName: "b", WebDir: "www"}
	dev, err := cfg.WithDevServer("https://dev.example.com")
	if err != nil {
		t.Fatal(err)
	}
	if dev.Cleartext() {
		t.Error("https dev server should not enable cleartext")
	}

	if _, err := cfg.WithDevServer("dev.example.com"); err == nil {
		t.Error("expected error for dev server without scheme")
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Parse([]byte(devManifest), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, JSONFile)
	if err := Write(path, cfg); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != devManifest {
		t.Errorf("written manifest differs:\n%s", cmp.Diff(devManifest, string(data)))
	}

	loaded, gotPath, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if gotPath != path {
		t.Errorf("Load path = %q, want %q", gotPath, path)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("reloaded manifest differs (-want +got):\n%s", diff)
	}
}

func TestSanitizeAppID(t *testing.T) {
	tests := map[string]string{
		"wordle":    "com.example.wordle",
		"My-App":    "com.example.myapp",
		"2048":      "com.example.a2048",
		"___":       "com.example.app",
		"Hello_Wld": "com.example.hellowld",
	}
	for in, want := range tests {
		got := SanitizeAppID(in)
		if got != want {
			t.Errorf("SanitizeAppID(%q) = %q, want %q", in, got, want)
		}
		if err := validateAppID(got); err != nil {
			t.Errorf("SanitizeAppID(%q) produced invalid id: %v", in, err)
		}
	}
}

func TestParse_KeepsExplicitServerValues(t *testing.T) {
	const manifest = `{
  "appId": "com.hacker.wordle",
  "appName": "wordle",
  "webDir": "public",
  "bundledWebRuntime": false,
  "server": {
    "cleartext": false,
    "allowNavigation": []
  }
}
`
	cfg, err := Parse([]byte(manifest), FormatJSON)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Cleartext() {
		t.Error("explicit false cleartext reported as enabled")
	}

	out, err := Marshal(cfg, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != manifest {
		t.Errorf("JSON round trip changed manifest:\n%s", cmp.Diff(manifest, string(out)))
	}

	yamlOut, err := Marshal(cfg, FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"cleartext: false", "allowNavigation: []"} {
		if !strings.Contains(string(yamlOut), want) {
			t.Errorf("YAML output missing %q:\n%s", want, yamlOut)
		}
	}
	again, err := Parse(yamlOut, FormatYAML)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if diff := cmp.Diff(cfg, again); diff != "" {
		t.Errorf("YAML round trip changed manifest (-want +got):\n%s", diff)
	}

	clone := cfg.Clone()
	if clone.Server.Cleartext == nil || clone.Server.AllowNavigation == nil {
		t.Errorf("Clone dropped explicit values: %+v", clone.Server)
	}
	if clone.Server.Cleartext == cfg.Server.Cleartext {
		t.Error("Clone shares the cleartext pointer")
	}
}

func TestWithDevServer_SkipsEquivalentEntry(t *testing.T) {
	cfg := &Config{
		AppID:   "com.hacker.wordle",
		AppName: "wordle",
		WebDir:  "public",
		Server:  &ServerConfig{AllowNavigation: []string{"Example.com."}},
	}
	dev, err := cfg.WithDevServer("https://example.com:8443")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Example.com."}, dev.AllowNavigation()); diff != "" {
		t.Errorf("allowNavigation mismatch (-want +got):\n%s", diff)
	}
	if err := dev.Validate(); err != nil {
		t.Errorf("dev variant failed validation: %v", err)
	}
}

func TestResolve_EnvOverrideSkipsEquivalentEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, JSONFile, strings.Replace(devManifest, `"192.168.1.20"`, `"http://example.com"`, 1))
	t.Setenv("WEBSHELL_ALLOW_NAVIGATION", "http://example.com/,HTTP://EXAMPLE.COM")

	res, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if diff := cmp.Diff([]string{"http://example.com"}, res.Config.AllowNavigation()); diff != "" {
		t.Errorf("allowNavigation mismatch (-want +got):\n%s", diff)
	}
}
