package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-webshell/webshell/cmd/webshell/internal/cache"
	"github.com/go-webshell/webshell/cmd/webshell/internal/fetch"
)

func init() {
	RegisterCommand(&Command{
		Name:  "fetch-runtime",
		Short: "Download the web runtime shim",
		Long: `Download the webshell web runtime (webshell.js) from GitHub Releases.

The runtime is only needed by projects with "bundledWebRuntime": true.
It is verified against the release manifest checksum before it is stored.

The version is determined in this order:
  1. --version flag
  2. WEBSHELL_VERSION environment variable
  3. CLI version (for release builds)
  4. Latest release from GitHub (fallback)

Set WEBSHELL_RUNTIME_BASE_URL to download from a mirror.

The runtime is stored in: ~/.webshell/runtime/<version>/webshell.js`,
		Usage: "webshell fetch-runtime [--version VERSION]",
		Run:   runFetchRuntime,
	})
}

func runFetchRuntime(args []string) error {
	var version string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--version" || strings.HasPrefix(args[i], "--version="):
			v, next, err := flagValue(args, i, "--version")
			if err != nil {
				return err
			}
			version, i = v, next
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	path, err := FetchRuntime(context.Background(), version)
	if err != nil {
		return err
	}
	fmt.Printf("Web runtime stored at %s\n", path)
	return nil
}

// FetchRuntime downloads the web runtime and returns its cached path.
// This function is exported so it can be called from the sync command.
func FetchRuntime(ctx context.Context, requested string) (string, error) {
	d := fetch.DefaultDownloader()
	release := fetch.ReleaseFromEnv()

	// If the user explicitly passed --version, require it to be valid
	var version string
	if requested != "" {
		version = cache.NormalizeVersion(requested)
		if version == "" {
			return "", fmt.Errorf("invalid version %q (pseudo-versions and dev builds are not supported)\n\nUse a release version like v0.2.0 or omit --version to fetch latest", requested)
		}
	}
	if version == "" {
		version = cache.NormalizeVersion(os.Getenv("WEBSHELL_VERSION"))
	}
	if version == "" {
		version = cache.Version()
	}
	if version == "" {
		fmt.Println("Fetching latest release version from GitHub...")
		latest, err := release.FetchLatest(ctx, d)
		if err != nil {
			return "", fmt.Errorf("failed to determine version: %w\n\nSet WEBSHELL_VERSION or use --version flag", err)
		}
		version = cache.NormalizeVersion(latest)
		if version == "" {
			return "", fmt.Errorf("latest release tag %q is not a valid version", latest)
		}
	}

	dir, err := cache.RuntimeDir(version)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(dir, cache.RuntimeFile)

	fmt.Printf("Fetching webshell runtime %s...\n", version)
	if err := release.FetchRuntime(ctx, d, version, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// resolveRuntime returns the path of a verified cached web runtime,
// downloading one unless noFetch is set. The runtime matching the CLI
// version wins over the newest cached one.
func resolveRuntime(ctx context.Context, noFetch bool) (string, error) {
	path, err := cachedRuntime()
	if err != nil {
		return "", err
	}
	if path != "" {
		verr := fetch.VerifyCached(path)
		if verr == nil {
			return path, nil
		}
		fmt.Fprintf(os.Stderr, "Warning: ignoring cached web runtime: %v\n", verr)
	}

	if noFetch {
		return "", fmt.Errorf("no verified web runtime cached and --no-fetch is set; run 'webshell fetch-runtime'")
	}
	return FetchRuntime(ctx, "")
}

// cachedRuntime returns the cached runtime path to try, or "" if none.
func cachedRuntime() (string, error) {
	version := cache.Version()
	if version == "" {
		latest, err := cache.LatestCachedRuntime()
		if err != nil {
			return "", nil
		}
		version = latest
	}

	dir, err := cache.RuntimeDir(version)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, cache.RuntimeFile)
	if _, err := os.Stat(path); err != nil {
		return "", nil
	}
	return path, nil
}
