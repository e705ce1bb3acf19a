package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-webshell/webshell/cmd/webshell/internal/templates"
)

// plistManifestKeys are the top-level Info.plist entries derived from the
// manifest. Ejected projects only get these rewritten.
var plistManifestKeys = []string{"WKAppBoundDomains", "NSAppTransportSecurity"}

// IOSAppDir returns the App source directory inside an iOS project.
func IOSAppDir(projectDir string) string {
	return filepath.Join(projectDir, "App")
}

// WriteIOS writes the iOS project files to projectDir.
// If settings.Ejected is true, only the manifest-derived Info.plist
// entries are replaced and every other key is left as the user wrote it.
func WriteIOS(projectDir string, settings Settings) error {
	data := settings.templateData()
	appDir := IOSAppDir(projectDir)
	plistPath := filepath.Join(appDir, "Info.plist")

	if settings.Ejected {
		return patchInfoPlist(plistPath, data)
	}

	files := []struct {
		template string
		dest     string
	}{
		{"ios/Info.plist.tmpl", plistPath},
		{"ios/project.yml.tmpl", filepath.Join(projectDir, "project.yml")},
		{"ios/AppDelegate.swift", filepath.Join(appDir, "AppDelegate.swift")},
		{"ios/WebViewController.swift.tmpl", filepath.Join(appDir, "WebViewController.swift")},
		{"ios/LaunchScreen.storyboard", filepath.Join(appDir, "LaunchScreen.storyboard")},
	}
	for _, f := range files {
		if err := writeTemplateFile(f.template, f.dest, data); err != nil {
			return err
		}
	}

	return nil
}

// patchInfoPlist swaps the manifest-derived entries of an existing
// Info.plist for freshly rendered ones. A missing file is written in full.
func patchInfoPlist(path string, data *templates.TemplateData) error {
	existing, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return writeTemplateFile("ios/Info.plist.tmpl", path, data)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	rendered, err := templates.Render("ios/Info.plist.tmpl", data)
	if err != nil {
		return fmt.Errorf("failed to process template ios/Info.plist.tmpl: %w", err)
	}

	doc := string(existing)
	var entries strings.Builder
	for _, key := range plistManifestKeys {
		if start, end, ok := plistEntry(doc, key); ok {
			doc = doc[:start] + doc[end:]
		}
		if start, end, ok := plistEntry(rendered, key); ok {
			entries.WriteString(rendered[start:end])
		}
	}

	closing := strings.LastIndex(doc, "</dict>")
	if closing < 0 {
		return fmt.Errorf("%s has no top-level dict", path)
	}
	at := strings.LastIndex(doc[:closing], "\n") + 1
	doc = doc[:at] + entries.String() + doc[at:]

	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// plistEntry locates <key>name</key> and the value element after it. The
// returned range starts at the key's line and ends after the value's line.
func plistEntry(doc, name string) (int, int, bool) {
	keyTag := "<key>" + name + "</key>"
	i := strings.Index(doc, keyTag)
	if i < 0 {
		return 0, 0, false
	}
	start := strings.LastIndex(doc[:i], "\n") + 1

	open := strings.Index(doc[i+len(keyTag):], "<")
	if open < 0 {
		return 0, 0, false
	}
	open += i + len(keyTag)
	gt := strings.Index(doc[open:], ">")
	if gt < 0 {
		return 0, 0, false
	}
	gt += open

	var end int
	if doc[gt-1] == '/' {
		end = gt + 1
	} else {
		fields := strings.Fields(doc[open+1 : gt])
		if len(fields) == 0 {
			return 0, 0, false
		}
		end = closingTag(doc, open, fields[0])
		if end < 0 {
			return 0, 0, false
		}
	}

	if end < len(doc) && doc[end] == '\n' {
		end++
	}
	return start, end, true
}

// closingTag returns the offset just past the tag closing the element
// that opens at doc[open], or -1.
func closingTag(doc string, open int, tag string) int {
	depth := 0
	for pos := open; pos < len(doc); pos++ {
		if doc[pos] != '<' {
			continue
		}
		rest := doc[pos:]
		switch {
		case strings.HasPrefix(rest, "</"+tag+">"):
			depth--
			if depth == 0 {
				return pos + len("</"+tag+">")
			}
		case strings.HasPrefix(rest, "<"+tag+">"), strings.HasPrefix(rest, "<"+tag+" "):
			depth++
		}
	}
	return -1
}
