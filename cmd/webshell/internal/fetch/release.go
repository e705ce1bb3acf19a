package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	// GitHubRepo is the repository for webshell releases.
	GitHubRepo = "go-webshell/webshell"

	// DefaultBaseURL is the base URL for release downloads.
	DefaultBaseURL = "https://github.com/" + GitHubRepo + "/releases/download"

	// DefaultLatestURL is the endpoint for fetching the latest release.
	DefaultLatestURL = "https://api.github.com/repos/" + GitHubRepo + "/releases/latest"
)

// Manifest represents the manifest.json file in a release.
type Manifest struct {
	Runtime *AssetManifest `json:"runtime,omitempty"`
}

// AssetManifest contains checksum information for a release asset.
type AssetManifest struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
}

// Release locates release artifacts. The zero value uses GitHub.
type Release struct {
	BaseURL   string
	LatestURL string
}

// ReleaseFromEnv returns a Release honoring WEBSHELL_RUNTIME_BASE_URL.
func ReleaseFromEnv() Release {
	return Release{BaseURL: os.Getenv("WEBSHELL_RUNTIME_BASE_URL")}
}

func (r Release) baseURL() string {
	if r.BaseURL != "" {
		return strings.TrimSuffix(r.BaseURL, "/")
	}
	return DefaultBaseURL
}

func (r Release) latestURL() string {
	if r.LatestURL != "" {
		return r.LatestURL
	}
	return DefaultLatestURL
}

// releaseResponse is the GitHub API response for a release.
type releaseResponse struct {
	TagName string `json:"tag_name"`
}

// FetchLatest fetches the latest release tag.
func (r Release) FetchLatest(ctx context.Context, d *Downloader) (string, error) {
	body, err := d.DownloadJSON(ctx, r.latestURL())
	if err != nil {
		return "", fmt.Errorf("failed to fetch latest release: %w", err)
	}

	var resp releaseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse release response: %w", err)
	}

	if resp.TagName == "" {
		return "", fmt.Errorf("no tag_name in release response")
	}

	return resp.TagName, nil
}

// FetchManifest downloads and parses the manifest.json for a release.
func (r Release) FetchManifest(ctx context.Context, d *Downloader, version string) (*Manifest, error) {
	body, err := d.DownloadJSON(ctx, r.ManifestURL(version))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &m, nil
}

// ManifestURL returns the URL for the manifest.json of a release.
func (r Release) ManifestURL(version string) string {
	return fmt.Sprintf("%s/%s/manifest.json", r.baseURL(), version)
}

// AssetURL returns the download URL for a named release asset.
func (r Release) AssetURL(version, name string) string {
	return fmt.Sprintf("%s/%s/%s", r.baseURL(), version, name)
}

// RuntimeAssetName is the default release asset name of the web runtime.
func RuntimeAssetName(version string) string {
	return fmt.Sprintf("webshell-runtime-%s.js", version)
}

// FetchRuntime downloads the web runtime of a release to destPath,
// verifying it against the release manifest. The checksum is recorded
// next to the runtime so later uses can verify the cached copy.
func (r Release) FetchRuntime(ctx context.Context, d *Downloader, version, destPath string) error {
	m, err := r.FetchManifest(ctx, d, version)
	if err != nil {
		return err
	}
	if m.Runtime == nil || m.Runtime.SHA256 == "" {
		return fmt.Errorf("release %s has no runtime checksum in its manifest", version)
	}

	name := m.Runtime.Name
	if name == "" {
		name = RuntimeAssetName(version)
	}

	digest, err := d.Download(ctx, r.AssetURL(version, name), destPath, m.Runtime.SHA256)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", name, err)
	}
	return WriteChecksum(destPath, digest)
}
