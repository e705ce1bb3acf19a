package workspace

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-webshell/webshell/cmd/webshell/internal/cache"
	"github.com/go-webshell/webshell/cmd/webshell/internal/config"
	"github.com/go-webshell/webshell/cmd/webshell/internal/scaffold"
)

// Platforms lists the platforms a project can target, in display order.
var Platforms = []string{scaffold.Android, scaffold.IOS}

// Workspace represents a native shell project for one platform.
type Workspace struct {
	Root       string
	Platform   string
	ProjectDir string
	Ejected    bool
	Config     *config.Config
}

// Options adjusts how a workspace is prepared.
type Options struct {
	// Config overrides the manifest written to the shell, e.g. a dev
	// server variant. Defaults to the resolved manifest.
	Config *config.Config

	// RuntimePath is the web runtime shim copied when bundledWebRuntime is set.
	RuntimePath string
}

// Prepare generates or refreshes the native shell for platform.
// Managed shells are regenerated from scratch under the cache. Ejected
// shells in ./platform/<platform> keep user-owned files; only web assets
// and manifest-derived files are rewritten.
func Prepare(res *config.Resolved, platform string, opts Options) (*Workspace, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = res.Config
	}

	ws := &Workspace{
		Root:     res.Root,
		Platform: platform,
		Ejected:  IsEjected(res.Root, platform),
		Config:   cfg,
	}

	if ws.Ejected {
		ws.ProjectDir = EjectedBuildDir(res.Root, platform)
	} else {
		dir, err := ManagedBuildDir(res.Root, cfg.AppID, platform)
		if err != nil {
			return nil, err
		}
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("failed to clear build directory: %w", err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create build directory: %w", err)
		}
		ws.ProjectDir = dir
	}

	icon, err := scaffold.LoadIcon(res.Root)
	if err != nil {
		return nil, err
	}

	settings := scaffold.Settings{
		Config:  cfg,
		HasIcon: icon != nil,
		Ejected: ws.Ejected,
	}
	if err := scaffold.Write(platform, ws.ProjectDir, settings); err != nil {
		return nil, err
	}

	if icon != nil && !ws.Ejected {
		if err := scaffold.WriteIcons(platform, ws.ProjectDir, icon); err != nil {
			return nil, err
		}
	}

	if err := ws.SyncAssets(res.WebDirPath(), opts.RuntimePath); err != nil {
		return nil, err
	}

	return ws, nil
}

// SyncAssets copies the web bundle and the manifest into the shell.
func (ws *Workspace) SyncAssets(webDir, runtimePath string) error {
	return scaffold.SyncWebAssets(ws.Platform, ws.ProjectDir, scaffold.AssetOptions{
		Config:      ws.Config,
		WebDir:      webDir,
		RuntimePath: runtimePath,
	})
}

// ManagedBuildDir returns the cache directory of a managed shell.
// Returns: <build root>/<platform>/<hash of project root>
func ManagedBuildDir(root, appID, platform string) (string, error) {
	buildRoot, err := cache.BuildRoot(appID)
	if err != nil {
		return "", err
	}
	return filepath.Join(buildRoot, platform, ProjectHash(root)), nil
}

// ProjectHash returns a short stable identifier for a project root.
func ProjectHash(root string) string {
	hash := sha1.Sum([]byte(root))
	return hex.EncodeToString(hash[:6])
}

// EjectedBuildDir returns the user-owned platform directory.
func EjectedBuildDir(root, platform string) string {
	return filepath.Join(root, "platform", platform)
}

// IsEjected reports whether platform has been ejected into the project.
// A stray empty directory does not count.
func IsEjected(root, platform string) bool {
	dir := EjectedBuildDir(root, platform)

	var markers []string
	switch platform {
	case scaffold.Android:
		markers = []string{
			filepath.Join(dir, "settings.gradle"),
			filepath.Join(dir, "app", "build.gradle"),
		}
	case scaffold.IOS:
		markers = []string{
			filepath.Join(dir, "project.yml"),
			filepath.Join(scaffold.IOSAppDir(dir), "AppDelegate.swift"),
		}
	default:
		return false
	}

	for _, m := range markers {
		if _, err := os.Stat(m); err != nil {
			return false
		}
	}
	return true
}
