package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-webshell/webshell/cmd/webshell/internal/config"
	"github.com/go-webshell/webshell/cmd/webshell/internal/scaffold"
	"github.com/go-webshell/webshell/cmd/webshell/internal/workspace"
)

func init() {
	RegisterCommand(&Command{
		Name:  "eject",
		Short: "Eject platform for customization",
		Long: `Eject a platform's native shell project for full customization.

After ejecting, you can open the project in Android Studio (Android) or
generate it with XcodeGen and open it in Xcode (iOS), and make changes that
persist across syncs.

Platforms:
  android   Eject Android project to ./platform/android/
  ios       Eject iOS project to ./platform/ios/
  all       Eject both platforms

Flags:
  --force   Overwrite existing platform directory (creates backup)

The ejected project is a real, fully-functioning project with all template
values substituted. "webshell sync" keeps copying the web bundle and the
manifest into it, and rewrites the network security settings derived from
the server block; everything else is yours.`,
		Usage: "webshell eject <android|ios|all> [--force]",
		Run:   runEject,
	})
}

type ejectOptions struct {
	force bool
}

const ejectUsage = "\n\nUsage: webshell eject <android|ios|all> [--force]"

func runEject(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("platform is required" + ejectUsage)
	}

	var platforms []string
	opts := ejectOptions{}

	for _, arg := range args {
		if arg == "--force" {
			opts.force = true
			continue
		}
		if strings.HasPrefix(arg, "-") {
			return fmt.Errorf("unknown argument %q"+ejectUsage, arg)
		}
		p, err := parsePlatforms(arg)
		if err != nil {
			return fmt.Errorf("%w"+ejectUsage, err)
		}
		platforms = p
	}

	if len(platforms) == 0 {
		return fmt.Errorf("platform is required" + ejectUsage)
	}

	res, err := resolveProject()
	if err != nil {
		return err
	}

	// Check for existing platform directories first (fail fast)
	var existing []string
	for _, platform := range platforms {
		platformDir := workspace.EjectedBuildDir(res.Root, platform)
		if _, err := os.Stat(platformDir); err == nil {
			existing = append(existing, platformDir)
		}
	}

	if len(existing) > 0 && !opts.force {
		if len(existing) == 1 {
			return fmt.Errorf("%s already exists. Use --force to overwrite (creates backup)", existing[0])
		}
		return fmt.Errorf("cannot eject all platforms. Existing directories:\n  - %s\nUse --force to backup and overwrite, or eject platforms individually",
			strings.Join(existing, "\n  - "))
	}

	for _, platform := range platforms {
		if err := ejectPlatform(res, platform, opts); err != nil {
			return err
		}
	}

	return nil
}

func ejectPlatform(res *config.Resolved, platform string, opts ejectOptions) error {
	platformDir := workspace.EjectedBuildDir(res.Root, platform)

	if _, err := os.Stat(platformDir); err == nil && opts.force {
		backupDir, err := createBackup(platformDir)
		if err != nil {
			return fmt.Errorf("failed to backup %s: %w", platformDir, err)
		}
		fmt.Printf("Backed up %s to %s\n", platformDir, backupDir)
	}

	if err := os.MkdirAll(platformDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", platformDir, err)
	}

	icon, err := scaffold.LoadIcon(res.Root)
	if err != nil {
		return err
	}
	settings := scaffold.Settings{Config: res.Config, HasIcon: icon != nil}
	if err := scaffold.Write(platform, platformDir, settings); err != nil {
		return err
	}
	if icon != nil {
		if err := scaffold.WriteIcons(platform, platformDir, icon); err != nil {
			return err
		}
	}

	fmt.Printf("\nEjected %s to %s\n\n", platform, platformDir)

	if _, err := os.Stat(res.WebDirPath()); err == nil && !res.Config.BundledWebRuntime {
		if _, err := workspace.Prepare(res, platform, workspace.Options{}); err != nil {
			return fmt.Errorf("failed to copy web assets: %w", err)
		}
	} else {
		fmt.Printf("Run 'webshell sync %s' to copy your web assets.\n\n", platform)
	}

	switch platform {
	case scaffold.IOS:
		fmt.Printf("Generate the Xcode project:\n  cd %s && xcodegen\n\n", platformDir)
	case scaffold.Android:
		fmt.Printf("Open in Android Studio:\n  studio %s\n\n", platformDir)
	}

	fmt.Println("Suggested .gitignore additions:")
	assetDir, err := scaffold.AssetDir(platform, platformDir)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(res.Root, assetDir)
	if err != nil {
		return err
	}
	rel = filepath.ToSlash(rel)
	fmt.Printf("  %s/%s/\n", rel, scaffold.PublicDir)
	fmt.Printf("  %s/%s\n", rel, config.JSONFile)

	return nil
}

func createBackup(dir string) (string, error) {
	now := time.Now()
	base := dir + ".backup." + now.Format("20060102-150405")

	// Try the unsuffixed name first, then add a counter on collision
	if _, err := os.Stat(base); os.IsNotExist(err) {
		if err := os.Rename(dir, base); err != nil {
			return "", err
		}
		return base, nil
	}
	for i := 2; i <= 999; i++ {
		backupDir := fmt.Sprintf("%s-%03d", base, i)
		if _, err := os.Stat(backupDir); os.IsNotExist(err) {
			if err := os.Rename(dir, backupDir); err != nil {
				return "", err
			}
			return backupDir, nil
		}
	}

	return "", fmt.Errorf("too many backups exist for %s", dir)
}
