package scaffold

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-webshell/webshell/cmd/webshell/internal/config"
)

const (
	// PublicDir is the directory holding the web bundle inside the native
	// asset directory.
	PublicDir = "public"

	// RuntimeName is the file name of the bundled web runtime shim.
	RuntimeName = "webshell.js"

	// NavigationFile holds the normalized navigation origins the shells
	// match URLs against.
	NavigationFile = "webshell.navigation.json"
)

// navigationRules is the content of NavigationFile.
type navigationRules struct {
	Origins []config.Origin `json:"origins"`
}

// AssetDir returns the native directory that receives the web bundle and
// the manifest copy.
func AssetDir(platform, projectDir string) (string, error) {
	switch platform {
	case Android:
		return filepath.Join(AndroidSourceDir(projectDir), "assets"), nil
	case IOS:
		return IOSAppDir(projectDir), nil
	default:
		return "", fmt.Errorf("unknown platform %q", platform)
	}
}

// AssetOptions describes one web asset sync.
type AssetOptions struct {
	Config      *config.Config
	WebDir      string // absolute path of the manifest's webDir
	RuntimePath string // web runtime shim, required when Config.BundledWebRuntime
}

// SyncWebAssets replaces the native copy of the web bundle with the
// current contents of opts.WebDir and writes the manifest and its
// navigation rules next to it.
func SyncWebAssets(platform, projectDir string, opts AssetOptions) error {
	assetDir, err := AssetDir(platform, projectDir)
	if err != nil {
		return err
	}

	info, err := os.Stat(opts.WebDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("webDir %s does not exist; build your web app first", opts.WebDir)
		}
		return fmt.Errorf("failed to stat webDir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("webDir %s is not a directory", opts.WebDir)
	}
	if _, err := os.Stat(filepath.Join(opts.WebDir, "index.html")); err != nil {
		return fmt.Errorf("webDir %s has no index.html", opts.WebDir)
	}

	publicDir := filepath.Join(assetDir, PublicDir)
	if err := os.RemoveAll(publicDir); err != nil {
		return fmt.Errorf("failed to clear %s: %w", publicDir, err)
	}
	if err := copyTree(opts.WebDir, publicDir); err != nil {
		return fmt.Errorf("failed to copy web assets: %w", err)
	}

	if opts.Config.BundledWebRuntime {
		if opts.RuntimePath == "" {
			return fmt.Errorf("bundledWebRuntime is enabled but no runtime is available; run 'webshell fetch-runtime'")
		}
		if err := copyFile(opts.RuntimePath, filepath.Join(publicDir, RuntimeName), 0o644); err != nil {
			return fmt.Errorf("failed to copy web runtime: %w", err)
		}
	}

	if err := config.Write(filepath.Join(assetDir, config.JSONFile), opts.Config); err != nil {
		return err
	}

	return writeNavigation(filepath.Join(assetDir, NavigationFile), opts.Config)
}

func writeNavigation(path string, cfg *config.Config) error {
	rules := navigationRules{Origins: cfg.NavigationOrigins()}
	if rules.Origins == nil {
		rules.Origins = []config.Origin{}
	}
	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", NavigationFile, err)
	}
	return nil
}

// copyTree mirrors regular files and directories from src into dst.
// Dotfiles and symlinks are skipped.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel != "." && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return copyFile(path, target, info.Mode().Perm())
		default:
			return nil
		}
	})
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
