package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
)

// maxJSONSize bounds manifest and release API responses.
const maxJSONSize = 1 << 20

// Downloader handles HTTP downloads with configurable timeouts.
type Downloader struct {
	client    *http.Client
	userAgent string
}

// NewDownloader creates a downloader with the specified timeout.
func NewDownloader(timeout time.Duration) *Downloader {
	return &Downloader{
		client:    &http.Client{Timeout: timeout},
		userAgent: "webshell-cli",
	}
}

// DefaultDownloader returns a downloader with a 2-minute timeout.
func DefaultDownloader() *Downloader {
	return NewDownloader(2 * time.Minute)
}

func (d *Downloader) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch failed: %s returned %s", url, resp.Status)
	}
	return resp, nil
}

// Download fetches url into destPath. The file only appears at destPath
// once its SHA-256 matches expectedSHA256; an empty checksum skips the
// check. The returned string is the hex digest of the body.
func (d *Downloader) Download(ctx context.Context, url, destPath, expectedSHA256 string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", destPath, err)
	}

	resp, err := d.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	pending, err := renameio.NewPendingFile(destPath, renameio.WithPermissions(0o644))
	if err != nil {
		return "", fmt.Errorf("failed to create pending file: %w", err)
	}
	defer pending.Cleanup()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(pending, h), resp.Body); err != nil {
		return "", fmt.Errorf("failed to write download: %w", err)
	}

	actual := hex.EncodeToString(h.Sum(nil))
	if expectedSHA256 != "" && actual != expectedSHA256 {
		return "", &ChecksumError{File: destPath, Expected: expectedSHA256, Actual: actual}
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("failed to replace %s: %w", destPath, err)
	}
	return actual, nil
}

// DownloadJSON fetches url and returns the response body.
// Useful for small JSON responses like manifests.
func (d *Downloader) DownloadJSON(ctx context.Context, url string) ([]byte, error) {
	resp, err := d.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
