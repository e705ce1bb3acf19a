package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-webshell/webshell/cmd/webshell/internal/config"
)

func init() {
	RegisterCommand(&Command{
		Name:  "config",
		Short: "Print the resolved manifest",
		Long: `Print the manifest as the native shells will see it.

Environment overrides (WEBSHELL_SERVER_URL, WEBSHELL_ALLOW_NAVIGATION,
WEBSHELL_CLEARTEXT) are applied and the result is validated.

Flags:
  --dev URL   Show the variant that loads content from a dev server
  --release   Show the variant without the server block
  --yaml      Print YAML instead of JSON
  --navigate URL
              Report whether the shells open URL in place or hand it to
              the system browser, instead of printing the manifest`,
		Usage: "webshell config [--dev URL] [--release] [--yaml] [--navigate URL]",
		Run:   runConfig,
	})
}

type configOptions struct {
	devURL   string
	release  bool
	format   config.Format
	navigate string
}

func parseConfigArgs(args []string) (configOptions, error) {
	opts := configOptions{format: config.FormatJSON}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--dev" || strings.HasPrefix(arg, "--dev="):
			v, next, err := flagValue(args, i, "--dev")
			if err != nil {
				return opts, err
			}
			opts.devURL, i = v, next
		case arg == "--navigate" || strings.HasPrefix(arg, "--navigate="):
			v, next, err := flagValue(args, i, "--navigate")
			if err != nil {
				return opts, err
			}
			opts.navigate, i = v, next
		case arg == "--release":
			opts.release = true
		case arg == "--yaml":
			opts.format = config.FormatYAML
		default:
			return opts, fmt.Errorf("unknown flag: %s", arg)
		}
	}
	if opts.devURL != "" && opts.release {
		return opts, fmt.Errorf("--dev and --release cannot be combined")
	}
	return opts, nil
}

func runConfig(args []string) error {
	opts, err := parseConfigArgs(args)
	if err != nil {
		return err
	}

	res, err := resolveProject()
	if err != nil {
		return err
	}
	if opts.navigate != "" {
		return printNavigation(os.Stdout, res.Config, opts)
	}
	return printConfig(os.Stdout, res.Config, opts)
}

// variant applies the --dev or --release selection to cfg.
func (o configOptions) variant(cfg *config.Config) (*config.Config, error) {
	switch {
	case o.devURL != "":
		dev, err := cfg.WithDevServer(o.devURL)
		if err != nil {
			return nil, err
		}
		if err := dev.Validate(); err != nil {
			return nil, err
		}
		return dev, nil
	case o.release:
		return cfg.WithoutServer(), nil
	default:
		return cfg, nil
	}
}

func printConfig(w io.Writer, cfg *config.Config, opts configOptions) error {
	out, err := opts.variant(cfg)
	if err != nil {
		return err
	}
	data, err := config.Marshal(out, opts.format)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func printNavigation(w io.Writer, cfg *config.Config, opts configOptions) error {
	out, err := opts.variant(cfg)
	if err != nil {
		return err
	}
	if out.AllowsNavigation(opts.navigate) {
		_, err = fmt.Fprintf(w, "%s opens in the app\n", opts.navigate)
	} else {
		_, err = fmt.Fprintf(w, "%s opens in the system browser\n", opts.navigate)
	}
	return err
}
