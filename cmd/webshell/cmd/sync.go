package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/go-webshell/webshell/cmd/webshell/internal/config"
	"github.com/go-webshell/webshell/cmd/webshell/internal/log"
	"github.com/go-webshell/webshell/cmd/webshell/internal/workspace"
)

func init() {
	RegisterCommand(&Command{
		Name:  "sync",
		Short: "Generate native shells and copy web assets",
		Long: `Generate the native shell projects and copy the web bundle into them.

Supported platforms:
  android   Sync the Android shell
  ios       Sync the iOS shell
  all       Sync both shells

Managed shells are regenerated under ~/.webshell/build/ on every sync.
Ejected shells (see "webshell eject") keep your changes. Only the web
assets, the navigation rules and the manifest-derived network settings
are rewritten: network_security_config.xml on Android, and the
NSAppTransportSecurity and WKAppBoundDomains keys of Info.plist on iOS.

Flags:
  --dev URL    Point the shells at a dev server instead of bundled assets
  --release    Drop the manifest's server block from the native copy
  --no-fetch   Do not download the web runtime when it is missing
  --watch      Keep running and resync when webDir or the manifest changes

The web runtime is only needed when "bundledWebRuntime" is true; it is
downloaded automatically unless --no-fetch is given.`,
		Usage: "webshell sync <android|ios|all> [--dev URL] [--release] [--no-fetch] [--watch]",
		Run:   runSync,
	})
}

type syncOptions struct {
	configOptions
	platforms []string
	noFetch   bool
	watch     bool
}

func parseSyncArgs(args []string) (syncOptions, error) {
	var opts syncOptions
	if len(args) == 0 {
		return opts, fmt.Errorf("platform is required\n\nUsage: webshell sync <android|ios|all>")
	}

	var rest []string
	for _, arg := range args {
		switch arg {
		case "--no-fetch":
			opts.noFetch = true
		case "--watch":
			opts.watch = true
		default:
			if strings.HasPrefix(arg, "-") || len(rest) > 0 && rest[len(rest)-1] == "--dev" {
				rest = append(rest, arg)
				continue
			}
			if opts.platforms != nil {
				return opts, fmt.Errorf("unexpected argument %q", arg)
			}
			platforms, err := parsePlatforms(arg)
			if err != nil {
				return opts, err
			}
			opts.platforms = platforms
		}
	}
	if opts.platforms == nil {
		return opts, fmt.Errorf("platform is required\n\nUsage: webshell sync <android|ios|all>")
	}

	co, err := parseConfigArgs(rest)
	if err != nil {
		return opts, err
	}
	if co.format != config.FormatJSON {
		return opts, fmt.Errorf("unknown flag: --yaml")
	}
	if co.navigate != "" {
		return opts, fmt.Errorf("unknown flag: --navigate")
	}
	opts.configOptions = co
	return opts, nil
}

func runSync(args []string) error {
	opts, err := parseSyncArgs(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := resolveProject()
	if err != nil {
		return err
	}
	if err := syncPlatforms(ctx, res, opts); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}

	logger := log.WithComponent("sync")
	w := &workspace.Watcher{
		Paths:  []string{res.WebDirPath(), res.Path},
		Logger: logger,
	}
	return w.Run(ctx, func() error {
		// The manifest may have changed; resolve it again.
		latest, err := config.Resolve(res.Root)
		if err != nil {
			return err
		}
		return syncPlatforms(ctx, latest, opts)
	})
}

func syncPlatforms(ctx context.Context, res *config.Resolved, opts syncOptions) error {
	cfg, err := opts.variant(res.Config)
	if err != nil {
		return err
	}

	var runtimePath string
	if cfg.BundledWebRuntime {
		runtimePath, err = resolveRuntime(ctx, opts.noFetch)
		if err != nil {
			return err
		}
	}

	// Platforms write to separate directories, so they sync concurrently.
	spaces := make([]*workspace.Workspace, len(opts.platforms))
	g, _ := errgroup.WithContext(ctx)
	for i, platform := range opts.platforms {
		g.Go(func() error {
			ws, err := workspace.Prepare(res, platform, workspace.Options{
				Config:      cfg,
				RuntimePath: runtimePath,
			})
			if err != nil {
				return fmt.Errorf("failed to sync %s: %w", platform, err)
			}
			spaces[i] = ws
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, ws := range spaces {
		mode := "managed"
		if ws.Ejected {
			mode = "ejected"
		}
		fmt.Printf("Synced %s shell (%s) -> %s\n", ws.Platform, mode, ws.ProjectDir)
	}

	if cfg.Server != nil && cfg.Server.URL != "" {
		fmt.Printf("Shells load content from %s\n", cfg.Server.URL)
	}
	return nil
}
