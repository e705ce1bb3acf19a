package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-webshell/webshell/cmd/webshell/internal/devserver"
	"github.com/go-webshell/webshell/cmd/webshell/internal/log"
)

const defaultServeAddr = ":5173"

func init() {
	RegisterCommand(&Command{
		Name:  "serve",
		Short: "Serve webDir for live development",
		Long: `Serve the project's webDir over HTTP so a device can load it live.

The server disables caching, falls back to index.html for client-side
routes, and exposes the dev variant of the manifest at /__webshell/config.

Flags:
  --addr ADDR   Listen address (default: :5173)
  --host HOST   Host devices use to reach this machine (default: first LAN IPv4)

After starting, run the printed "webshell sync" command so the shells load
content from this server.`,
		Usage: "webshell serve [--addr ADDR] [--host HOST]",
		Run:   runServe,
	})
}

type serveOptions struct {
	addr string
	host string
}

func parseServeArgs(args []string) (serveOptions, error) {
	opts := serveOptions{addr: defaultServeAddr}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		var err error
		switch {
		case arg == "--addr" || strings.HasPrefix(arg, "--addr="):
			opts.addr, i, err = flagValue(args, i, "--addr")
		case arg == "--host" || strings.HasPrefix(arg, "--host="):
			opts.host, i, err = flagValue(args, i, "--host")
		default:
			err = fmt.Errorf("unknown flag: %s", arg)
		}
		if err != nil {
			return opts, err
		}
	}

	_, port, err := net.SplitHostPort(opts.addr)
	if err != nil {
		return opts, fmt.Errorf("invalid --addr %q: %w", opts.addr, err)
	}
	if port == "" || port == "0" {
		return opts, fmt.Errorf("--addr needs a fixed port so the shells can reach it")
	}
	return opts, nil
}

func runServe(args []string) error {
	opts, err := parseServeArgs(args)
	if err != nil {
		return err
	}

	res, err := resolveProject()
	if err != nil {
		return err
	}

	host := opts.host
	if host == "" {
		host = devserver.LANHost()
	}
	devURL := devserver.URL(host, opts.addr)
	dev, err := res.Config.WithDevServer(devURL)
	if err != nil {
		return err
	}
	if err := dev.Validate(); err != nil {
		return err
	}

	var runtimePath string
	if res.Config.BundledWebRuntime {
		runtimePath, err = resolveRuntime(context.Background(), true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	srv, err := devserver.New(res.WebDirPath(), devserver.Options{
		Addr:        opts.addr,
		Config:      dev,
		RuntimePath: runtimePath,
		Logger:      log.WithComponent("devserver"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ready := make(chan string, 1)
	go func() {
		if _, ok := <-ready; !ok {
			return
		}
		fmt.Printf("Serving %s at %s\n\n", res.Config.WebDir, devURL)
		fmt.Println("Point the native shells at this server with:")
		fmt.Printf("  webshell sync all --dev %s\n\n", devURL)
		fmt.Println("Press Ctrl+C to stop.")
	}()

	err = srv.ListenAndServe(ctx, ready)
	close(ready)
	return err
}
