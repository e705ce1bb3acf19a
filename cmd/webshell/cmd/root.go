// Package cmd implements the webshell CLI commands.
//
// The command structure follows standard Go CLI patterns with a root command
// that dispatches to subcommands (init, sync, serve, eject, ...).
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-webshell/webshell/cmd/webshell/internal/cache"
	"github.com/go-webshell/webshell/cmd/webshell/internal/config"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// Command represents a CLI command.
type Command struct {
	Name        string
	Short       string
	Long        string
	Usage       string
	Run         func(args []string) error
	SubCommands []*Command
}

var rootCmd = &Command{
	Name:  "webshell",
	Short: "webshell - wrap a web app in native Android and iOS shells",
	Long: `webshell packages a web application as a native Android or iOS app.
The app is described by webshell.config.json (or webshell.config.yaml);
webshell generates the native shell projects, copies your web assets into
them and keeps them in sync while you develop.

Use "webshell <command> --help" for more information about a command.`,
	Usage: "webshell <command> [flags]",
}

// Commands registered with the CLI.
var commands = make(map[string]*Command)

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *Command) {
	commands[cmd.Name] = cmd
	rootCmd.SubCommands = append(rootCmd.SubCommands, cmd)
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return ExecuteArgs(os.Args[1:])
}

// ExecuteArgs runs the CLI with the given arguments.
func ExecuteArgs(args []string) error {
	cache.SetGlobal(Version)

	if len(args) == 0 {
		printHelp(rootCmd)
		return nil
	}

	// Handle global flags and extract --cache-dir
	var filteredArgs []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-h", "--help", "help":
			if len(filteredArgs) == 0 {
				printHelp(rootCmd)
				return nil
			}
			filteredArgs = append(filteredArgs, arg)
		case "-v", "--version", "version":
			if len(filteredArgs) == 0 {
				fmt.Printf("webshell version %s (built %s)\n", Version, BuildTime)
				return nil
			}
			filteredArgs = append(filteredArgs, arg)
		case "--cache-dir":
			if i+1 < len(args) {
				cache.SetCacheDir(args[i+1])
				i++
			} else {
				return fmt.Errorf("--cache-dir requires a directory path")
			}
		default:
			if strings.HasPrefix(arg, "--cache-dir=") {
				cache.SetCacheDir(strings.TrimPrefix(arg, "--cache-dir="))
				continue
			}
			filteredArgs = append(filteredArgs, arg)
		}
	}
	args = filteredArgs

	if len(args) == 0 {
		printHelp(rootCmd)
		return nil
	}

	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", cmdName)
		printHelp(rootCmd)
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	cmdArgs := args[1:]
	for _, arg := range cmdArgs {
		if arg == "-h" || arg == "--help" || arg == "help" {
			printCommandHelp(cmd)
			return nil
		}
	}

	return cmd.Run(cmdArgs)
}

func printHelp(cmd *Command) {
	fmt.Println(cmd.Long)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s\n", cmd.Usage)
	fmt.Println()
	fmt.Println("Commands:")
	for _, sub := range cmd.SubCommands {
		fmt.Printf("  %-14s %s\n", sub.Name, sub.Short)
	}
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -h, --help           Show help for a command")
	fmt.Println("  -v, --version        Show version information")
	fmt.Println("  --cache-dir DIR      Override cache directory (default: ~/.webshell)")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  WEBSHELL_CACHE_DIR         Cache directory override (lower priority than --cache-dir)")
	fmt.Println("  WEBSHELL_SERVER_URL        Load app content from this URL instead of bundled assets")
	fmt.Println("  WEBSHELL_ALLOW_NAVIGATION  Extra allowNavigation entries (comma separated)")
	fmt.Println("  WEBSHELL_CLEARTEXT         Allow cleartext (http) traffic")
	fmt.Println("  WEBSHELL_LOG_LEVEL         Log level for serve and sync --watch")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  webshell init wordle            Create a new project")
	fmt.Println("  webshell sync all               Copy web assets into both shells")
	fmt.Println("  webshell serve                  Serve webDir for live reload on a device")
}

func printCommandHelp(cmd *Command) {
	fmt.Println(cmd.Long)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s\n", cmd.Usage)
}

// parsePlatforms expands platform arguments. "all" selects every platform.
func parsePlatforms(arg string) ([]string, error) {
	switch strings.ToLower(arg) {
	case "android":
		return []string{"android"}, nil
	case "ios":
		return []string{"ios"}, nil
	case "all":
		return []string{"android", "ios"}, nil
	default:
		return nil, fmt.Errorf("unknown platform %q (use android, ios, or all)", arg)
	}
}

// flagValue returns the value of a "--name VALUE" or "--name=VALUE" flag at
// args[i] and the index of the last consumed argument.
func flagValue(args []string, i int, name string) (string, int, error) {
	arg := args[i]
	if v, ok := strings.CutPrefix(arg, name+"="); ok {
		return v, i, nil
	}
	if i+1 >= len(args) {
		return "", i, fmt.Errorf("%s requires a value", name)
	}
	return args[i+1], i + 1, nil
}

// resolveProject finds and resolves the manifest of the current project.
func resolveProject() (*config.Resolved, error) {
	root, err := config.FindProjectRoot()
	if err != nil {
		return nil, err
	}
	return config.Resolve(root)
}

// Commands returns the registered commands in registration order.
func Commands() []*Command {
	return rootCmd.SubCommands
}
