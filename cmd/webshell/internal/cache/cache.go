// Package cache provides centralized cache directory resolution for webshell.
//
// Priority order: --cache-dir flag > WEBSHELL_CACHE_DIR env > ~/.webshell default.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
)

// RuntimeFile is the name of the web runtime shim inside a runtime directory.
const RuntimeFile = "webshell.js"

var global struct {
	version  string
	cacheDir string
}

// SetGlobal initializes the cache resolver with the CLI version.
// This should be called at startup from root.go.
func SetGlobal(version string) {
	global.version = NormalizeVersion(version)
}

// NormalizeVersion returns a clean release version, or empty if the version
// is not a valid release (e.g., dev builds, pseudo-versions from go install).
// Explicit prerelease tags (v0.2.0-rc1) are allowed.
//
// Examples:
//
//	"v0.1.0"                          -> "v0.1.0"
//	"0.1.0"                           -> "v0.1.0"
//	"webshell-v0.1.0"                 -> "v0.1.0"
//	"v0.2.0-rc1"                      -> "v0.2.0-rc1" (prerelease allowed)
//	"0.1.0-dev"                       -> "" (dev build)
//	"v0.2.1-0.20260122153045-abc123"  -> "" (pseudo-version)
func NormalizeVersion(version string) string {
	version = strings.TrimPrefix(strings.TrimSpace(version), "webshell-")
	if version == "" {
		return ""
	}
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}

	if !semver.IsValid(version) || semver.Build(version) != "" {
		return ""
	}
	// Require the full X.Y.Z form; semver accepts v1 and v1.2 shorthands.
	if semver.Canonical(version) != version {
		return ""
	}

	pre := semver.Prerelease(version)
	if pre == "-dev" || strings.HasSuffix(pre, ".dev") {
		return ""
	}
	if strings.HasPrefix(pre, "-0.") {
		return ""
	}

	return version
}

// Version returns the normalized CLI version, or empty for non-release builds.
func Version() string {
	return global.version
}

// SetCacheDir sets an override for the cache directory.
// This is typically called when parsing the --cache-dir flag.
func SetCacheDir(dir string) {
	global.cacheDir = dir
}

// Root returns the cache root directory.
// Priority: --cache-dir flag > WEBSHELL_CACHE_DIR env > ~/.webshell default.
func Root() (string, error) {
	if global.cacheDir != "" {
		return global.cacheDir, nil
	}

	if envDir := os.Getenv("WEBSHELL_CACHE_DIR"); envDir != "" {
		return envDir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	return filepath.Join(home, ".webshell"), nil
}

// BuildRoot returns the build cache directory for an application.
// Returns: <cache_root>/build/<app_id>
func BuildRoot(appID string) (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}

	slug := strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(appID)
	return filepath.Join(root, "build", slug), nil
}

// RuntimeDir returns the directory holding a downloaded runtime version.
// Returns: <cache_root>/runtime/<version>
func RuntimeDir(version string) (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "runtime", version), nil
}

// LatestCachedRuntime returns the highest runtime version present in the
// cache, or an error if none has been downloaded.
func LatestCachedRuntime() (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}

	runtimeDir := filepath.Join(root, "runtime")
	entries, err := os.ReadDir(runtimeDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no runtime cached in %s; run 'webshell fetch-runtime'", runtimeDir)
		}
		return "", fmt.Errorf("failed to read cache directory %s: %w", runtimeDir, err)
	}

	var best string
	for _, entry := range entries {
		if !entry.IsDir() || !semver.IsValid(entry.Name()) {
			continue
		}
		if _, err := os.Stat(filepath.Join(runtimeDir, entry.Name(), RuntimeFile)); err != nil {
			continue
		}
		if best == "" || semver.Compare(entry.Name(), best) > 0 {
			best = entry.Name()
		}
	}

	if best == "" {
		return "", fmt.Errorf("no runtime cached in %s; run 'webshell fetch-runtime'", runtimeDir)
	}
	return best, nil
}
