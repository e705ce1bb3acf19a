// Package scaffold writes native Android and iOS shell projects and keeps
// their bundled web assets in sync with the manifest's webDir.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-webshell/webshell/cmd/webshell/internal/config"
	"github.com/go-webshell/webshell/cmd/webshell/internal/templates"
)

// Platforms supported by the scaffolder.
const (
	Android = "android"
	IOS     = "ios"
)

// Settings describes what to scaffold.
type Settings struct {
	Config  *config.Config
	HasIcon bool
	Ejected bool // If true, skip user-owned files (Swift/Kotlin, project files)
}

func (s Settings) templateData() *templates.TemplateData {
	data := templates.NewTemplateData(s.Config)
	data.HasIcon = s.HasIcon
	return data
}

// Write scaffolds the named platform into projectDir.
func Write(platform, projectDir string, settings Settings) error {
	switch platform {
	case Android:
		return WriteAndroid(projectDir, settings)
	case IOS:
		return WriteIOS(projectDir, settings)
	default:
		return fmt.Errorf("unknown platform %q", platform)
	}
}

// writeTemplateFile renders (or copies, for non-template files) an embedded
// file to destPath, creating parent directories.
func writeTemplateFile(templatePath, destPath string, data *templates.TemplateData) error {
	var content []byte
	if templates.IsTemplate(templatePath) {
		processed, err := templates.Render(templatePath, data)
		if err != nil {
			return fmt.Errorf("failed to process template %s: %w", templatePath, err)
		}
		content = []byte(processed)
	} else {
		raw, err := templates.ReadFile(templatePath)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", templatePath, err)
		}
		content = raw
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(destPath), err)
	}
	if err := os.WriteFile(destPath, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return nil
}
