// Package fetch downloads webshell release artifacts over HTTP and
// verifies them against the checksums published in the release manifest.
package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/renameio/v2"
)

// ChecksumSuffix names the file that records a download's verified digest
// next to the download itself.
const ChecksumSuffix = ".sha256"

// FileSHA256 returns the hex SHA-256 digest of a file.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read file for checksum: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyChecksum compares the SHA-256 of a file with the expected value.
func VerifyChecksum(path, expectedSHA256 string) error {
	actual, err := FileSHA256(path)
	if err != nil {
		return err
	}
	if actual != expectedSHA256 {
		return &ChecksumError{File: path, Expected: expectedSHA256, Actual: actual}
	}
	return nil
}

// WriteChecksum records digest as the verified checksum of path.
func WriteChecksum(path, digest string) error {
	if err := renameio.WriteFile(path+ChecksumSuffix, []byte(digest+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to record checksum for %s: %w", path, err)
	}
	return nil
}

// VerifyCached checks a previously downloaded file against the checksum
// recorded by WriteChecksum.
func VerifyCached(path string) error {
	data, err := os.ReadFile(path + ChecksumSuffix)
	if err != nil {
		return fmt.Errorf("no recorded checksum for %s: %w", path, err)
	}
	return VerifyChecksum(path, strings.TrimSpace(string(data)))
}

// ChecksumError is returned when a file's checksum doesn't match the expected value.
type ChecksumError struct {
	File     string
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s\nExpected: %s\nActual:   %s", e.File, e.Expected, e.Actual)
}
