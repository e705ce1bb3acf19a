package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-webshell/webshell/cmd/webshell/internal/config"
	"github.com/go-webshell/webshell/cmd/webshell/internal/workspace"
)

func init() {
	RegisterCommand(&Command{
		Name:  "status",
		Short: "Show project status",
		Long: `Show the current status of the webshell project.

Displays the manifest summary, whether the web bundle is present, the
server block (if any) and which platforms are ejected (user-managed) vs
managed (generated to ~/.webshell/build/).

Ejected platforms live in ./platform/<platform>/ and preserve user changes.
Managed platforms regenerate all files on each sync.`,
		Usage: "webshell status",
		Run:   runStatus,
	})
}

func runStatus(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument %q", args[0])
	}

	res, err := resolveProject()
	if err != nil {
		return err
	}
	return printStatus(os.Stdout, res)
}

func printStatus(w io.Writer, res *config.Resolved) error {
	cfg := res.Config

	fmt.Fprintf(w, "Project: %s (%s)\n", cfg.AppName, cfg.AppID)
	fmt.Fprintf(w, "Manifest: %s\n", res.Path)

	webState := "missing"
	if _, err := os.Stat(res.WebDirPath()); err == nil {
		webState = "ok"
	}
	fmt.Fprintf(w, "Web dir:  %s (%s)\n", cfg.WebDir, webState)
	fmt.Fprintf(w, "Runtime:  bundled=%t\n", cfg.BundledWebRuntime)

	if cfg.Server != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Server:")
		if cfg.Server.URL != "" {
			fmt.Fprintf(w, "  url:             %s\n", cfg.Server.URL)
		}
		fmt.Fprintf(w, "  cleartext:       %t\n", cfg.Cleartext())
		if nav := cfg.AllowNavigation(); len(nav) > 0 {
			fmt.Fprintf(w, "  allowNavigation: %s\n", strings.Join(nav, ", "))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Platforms:")
	for _, p := range workspace.Platforms {
		if workspace.IsEjected(res.Root, p) {
			fmt.Fprintf(w, "  %-8s ejected  -> %s\n", p+":", workspace.EjectedBuildDir(res.Root, p))
			continue
		}
		managedDir, err := workspace.ManagedBuildDir(res.Root, cfg.AppID, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %-8s managed  -> %s\n", p+":", managedDir)
	}

	return nil
}
