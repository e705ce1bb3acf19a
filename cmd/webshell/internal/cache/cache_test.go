package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeVersion(t *testing.T) {
	tests := map[string]string{
		"v0.1.0":                         "v0.1.0",
		"0.1.0":                          "v0.1.0",
		"webshell-v0.1.0":                "v0.1.0",
		"v0.2.0-rc1":                     "v0.2.0-rc1",
		" v1.4.2 ":                       "v1.4.2",
		"0.1.0-dev":                      "",
		"v0.2.1-0.20260122153045-abc123": "",
		"v1.2":                           "",
		"v1":                             "",
		"v1.2.3+meta":                    "",
		"latest":                         "",
		"":                               "",
	}
	for in, want := range tests {
		if got := NormalizeVersion(in); got != want {
			t.Errorf("NormalizeVersion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRootPriority(t *testing.T) {
	t.Cleanup(func() { SetCacheDir("") })

	envDir := t.TempDir()
	t.Setenv("WEBSHELL_CACHE_DIR", envDir)

	SetCacheDir("")
	got, err := Root()
	if err != nil || got != envDir {
		t.Fatalf("Root() = %q, %v; want env dir %q", got, err, envDir)
	}

	flagDir := t.TempDir()
	SetCacheDir(flagDir)
	got, err = Root()
	if err != nil || got != flagDir {
		t.Fatalf("Root() = %q, %v; want flag dir %q", got, err, flagDir)
	}
}

func TestBuildRoot(t *testing.T) {
	t.Cleanup(func() { SetCacheDir("") })
	dir := t.TempDir()
	SetCacheDir(dir)

	got, err := BuildRoot("com.hacker.wordle")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "build", "com.hacker.wordle"); got != want {
		t.Errorf("BuildRoot = %q, want %q", got, want)
	}
}

func TestLatestCachedRuntime(t *testing.T) {
	t.Cleanup(func() { SetCacheDir("") })
	dir := t.TempDir()
	SetCacheDir(dir)

	if _, err := LatestCachedRuntime(); err == nil {
		t.Fatal("expected error with empty cache")
	}

	for _, v := range []string{"v0.9.0", "v0.10.0", "v0.10.1-rc1", "not-a-version"} {
		vdir := filepath.Join(dir, "runtime", v)
		if err := os.MkdirAll(vdir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(vdir, RuntimeFile), []byte("//"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// A version directory without the runtime file is ignored.
	if err := os.MkdirAll(filepath.Join(dir, "runtime", "v2.0.0"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := LatestCachedRuntime()
	if err != nil {
		t.Fatalf("LatestCachedRuntime failed: %v", err)
	}
	if got != "v0.10.1-rc1" {
		t.Errorf("LatestCachedRuntime = %q, want v0.10.1-rc1", got)
	}
}
