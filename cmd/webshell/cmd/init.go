package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-webshell/webshell/cmd/webshell/internal/config"
	"github.com/go-webshell/webshell/cmd/webshell/internal/templates"
)

func init() {
	RegisterCommand(&Command{
		Name:  "init",
		Short: "Create a new webshell project",
		Long: `Create a new webshell project in a new directory.

This command creates:
  - A new directory at the specified path
  - webshell.config.json describing the app
  - public/index.html as a starter page

The app name is derived from the directory basename.
The app ID defaults to com.example.<name> if not specified.

Flags:
  --yaml    Write webshell.config.yaml instead of JSON

Examples:
  webshell init wordle
  webshell init wordle com.hacker.wordle
  webshell init ./projects/wordle --yaml`,
		Usage: "webshell init <directory> [appId] [--yaml]",
		Run:   runInit,
	})
}

// initTemplateData contains the data for init template substitution.
type initTemplateData struct {
	AppName           string
	WebDir            string
	BundledWebRuntime bool
}

const defaultWebDir = "public"

// runInit creates a new project. The first argument is the directory path
// to create (which may be relative or absolute). The app name is derived from
// the directory's basename. An optional second argument sets the app ID.
func runInit(args []string) error {
	var (
		positional []string
		format     = config.FormatJSON
	)
	for _, arg := range args {
		switch {
		case arg == "--yaml":
			format = config.FormatYAML
		case strings.HasPrefix(arg, "--"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			positional = append(positional, arg)
		}
	}

	if len(positional) == 0 {
		return fmt.Errorf("directory is required\n\nUsage: webshell init <directory> [appId]")
	}

	raw := positional[0]
	if strings.HasPrefix(raw, "~") {
		return fmt.Errorf("tilde (~) is not expanded by webshell; use an absolute path or $HOME instead")
	}

	dir := filepath.Clean(raw)

	// Validate directory path before deriving anything from it
	if err := validateDirectory(dir); err != nil {
		return err
	}

	projectName := filepath.Base(dir)
	if err := validateProjectName(projectName); err != nil {
		return fmt.Errorf("invalid project name %q (derived from directory basename): %w", projectName, err)
	}

	appID := config.SanitizeAppID(projectName)
	if len(positional) > 1 {
		appID = positional[1]
	}
	if appID == "" {
		return fmt.Errorf("app ID cannot be empty")
	}

	cfg := &config.Config{
		AppID:   appID,
		AppName: projectName,
		WebDir:  defaultWebDir,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := scaffoldProject(dir, cfg, format); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Project created successfully!\n\n")
	fmt.Printf("Next steps:\n")
	fmt.Printf("  cd %s\n", dir)
	fmt.Printf("  webshell sync all      # Generate the native shells\n")
	fmt.Printf("  webshell serve         # Develop against a live server\n")

	return nil
}

// scaffoldProject creates the project directory and writes the manifest
// and starter page.
func scaffoldProject(dir string, cfg *config.Config, format config.Format) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("directory %q already exists", dir)
	}

	fmt.Printf("Creating new webshell project: %s\n", filepath.Base(dir))

	if err := os.MkdirAll(filepath.Join(dir, cfg.WebDir), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	manifest := config.JSONFile
	if format == config.FormatYAML {
		manifest = config.YAMLFile
	}
	if err := config.Write(filepath.Join(dir, manifest), cfg); err != nil {
		safeRemoveAll(dir)
		return err
	}
	fmt.Printf("  Created %s\n", manifest)

	data := initTemplateData{
		AppName:           cfg.AppName,
		WebDir:            cfg.WebDir,
		BundledWebRuntime: cfg.BundledWebRuntime,
	}
	indexName := filepath.Join(cfg.WebDir, "index.html")
	if err := writeInitTemplate(dir, "init/index.html.tmpl", indexName, data); err != nil {
		safeRemoveAll(dir)
		return err
	}
	fmt.Printf("  Created %s\n", filepath.ToSlash(indexName))

	return nil
}

func writeInitTemplate(projectDir, templatePath, destName string, data initTemplateData) error {
	content, err := templates.Render(templatePath, data)
	if err != nil {
		return fmt.Errorf("failed to render template %s: %w", templatePath, err)
	}

	destPath := filepath.Join(projectDir, destName)
	if err := os.WriteFile(destPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", destName, err)
	}

	return nil
}

// validateDirectory rejects directory paths that would be dangerous to create or
// clean up. This includes filesystem roots (/, C:\), the current/parent directory,
// and root-level absolute paths (e.g. /etc, C:\Users).
func validateDirectory(dir string) error {
	switch dir {
	case "", "/", ".", "..":
		return fmt.Errorf("directory %q is not a valid project location", dir)
	}
	if isVolumeRoot(dir) {
		return fmt.Errorf("directory %q is not a valid project location", dir)
	}
	if filepath.IsAbs(dir) && isVolumeRoot(filepath.Dir(dir)) {
		return fmt.Errorf("refusing to create project at root-level path %q", dir)
	}
	return nil
}

// isVolumeRoot reports whether dir is a filesystem root. On Unix this is "/",
// on Windows this covers drive roots like "C:\" and the bare root "\".
func isVolumeRoot(dir string) bool {
	return dir == filepath.VolumeName(dir)+string(filepath.Separator)
}

// safeRemoveAll removes a directory only if the path passes validateDirectory.
// It is called on cleanup paths where the original error should not be masked.
func safeRemoveAll(dir string) {
	if validateDirectory(dir) != nil {
		return
	}
	os.RemoveAll(dir)
}

var validProjectName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// validateProjectName checks that a project name (derived from the directory
// basename) starts with a letter and contains only letters, digits,
// underscores, and hyphens.
func validateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("project name cannot start with a dot")
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("project name cannot start with a hyphen")
	}
	if !validProjectName.MatchString(name) {
		return fmt.Errorf("project name must start with a letter and contain only letters, numbers, underscores, and hyphens")
	}
	return nil
}
