package scaffold

import (
	"fmt"
	"path/filepath"

	"github.com/go-webshell/webshell/cmd/webshell/internal/templates"
)

// AndroidSourceDir returns app/src/main inside an Android project.
func AndroidSourceDir(projectDir string) string {
	return filepath.Join(projectDir, "app", "src", "main")
}

// WriteAndroid writes the Android project files to projectDir.
// If settings.Ejected is true, only the generated resources that track the
// manifest (network security config) are rewritten.
func WriteAndroid(projectDir string, settings Settings) error {
	data := settings.templateData()
	srcDir := AndroidSourceDir(projectDir)
	resDir := filepath.Join(srcDir, "res")

	if err := writeTemplateFile("android/res/xml/network_security_config.xml.tmpl",
		filepath.Join(resDir, "xml", "network_security_config.xml"), data); err != nil {
		return err
	}

	if settings.Ejected {
		return nil
	}

	files := []struct {
		template string
		dest     string
	}{
		{"android/settings.gradle.tmpl", filepath.Join(projectDir, "settings.gradle")},
		{"android/build.gradle", filepath.Join(projectDir, "build.gradle")},
		{"android/gradle.properties", filepath.Join(projectDir, "gradle.properties")},
		{"android/app.build.gradle.tmpl", filepath.Join(projectDir, "app", "build.gradle")},
		{"android/AndroidManifest.xml.tmpl", filepath.Join(srcDir, "AndroidManifest.xml")},
		{"android/styles.xml", filepath.Join(resDir, "values", "styles.xml")},
	}
	for _, f := range files {
		if err := writeTemplateFile(f.template, f.dest, data); err != nil {
			return err
		}
	}

	// Kotlin sources go under the package path.
	kotlinDir := filepath.Join(srcDir, "java", filepath.FromSlash(data.PackagePath))
	javaFiles, err := templates.ListFiles("android/java")
	if err != nil {
		return fmt.Errorf("failed to list kotlin templates: %w", err)
	}
	for _, file := range javaFiles {
		if err := writeTemplateFile(file, filepath.Join(kotlinDir, templates.OutputName(file)), data); err != nil {
			return err
		}
	}

	return nil
}
