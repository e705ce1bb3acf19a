// Package templates provides the embedded native shell and starter project
// templates.
package templates

import (
	"embed"
	"encoding/json"
	"encoding/xml"
	"io/fs"
	"path"
	"strings"
	"text/template"

	"github.com/go-webshell/webshell/cmd/webshell/internal/config"
)

//go:embed android ios init
var FS embed.FS

// TemplateData contains the data for template substitution.
type TemplateData struct {
	AppName         string   // e.g., "wordle"
	PackageName     string   // e.g., "com.hacker.wordle"
	PackagePath     string   // e.g., "com/hacker/wordle"
	BundleID        string   // e.g., "com.hacker.wordle"
	URLScheme       string   // e.g., "wordle"
	Hostname        string   // bundled-asset host, e.g. "localhost"
	AndroidScheme   string   // "https" or "http"
	ServerURL       string   // live-reload URL, empty for bundled assets
	AllowHTTP       bool     // allow cleartext HTTP traffic
	NavigationHosts []string // hosts from server.url and server.allowNavigation
	HasIcon         bool     // a launcher icon was generated
}

// NewTemplateData derives template data from a manifest.
func NewTemplateData(cfg *config.Config) *TemplateData {
	data := &TemplateData{
		AppName:         cfg.AppName,
		PackageName:     cfg.AppID,
		PackagePath:     strings.ReplaceAll(cfg.AppID, ".", "/"),
		BundleID:        cfg.AppID,
		URLScheme:       sanitizeURLScheme(cfg.AppName),
		Hostname:        cfg.Hostname(),
		AndroidScheme:   cfg.AndroidScheme(),
		AllowHTTP:       cfg.Cleartext(),
		NavigationHosts: cfg.NavigationHosts(),
	}
	if cfg.Server != nil {
		data.ServerURL = cfg.Server.URL
	}
	return data
}

func sanitizeURLScheme(appName string) string {
	lower := strings.ToLower(strings.TrimSpace(appName))
	if lower == "" {
		return "app"
	}
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	scheme := b.String()
	if scheme[0] < 'a' || scheme[0] > 'z' {
		return "app-" + scheme
	}
	return scheme
}

// funcs escape free-text manifest values for the file being rendered.
var funcs = template.FuncMap{
	"xml":   escapeXML,
	"quote": quoteString,
	"yaml":  quoteYAML,
}

// escapeXML escapes s for XML character data and attribute values.
func escapeXML(s string) string {
	var b strings.Builder
	// strings.Builder never fails to write.
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// quoteString renders s as a double-quoted Kotlin or Groovy literal.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\', '"', '$':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// quoteYAML renders s as a double-quoted YAML scalar. JSON strings are
// valid YAML.
func quoteYAML(s string) string {
	data, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(data)
}

// Render reads an embedded template and executes it with data.
func Render(name string, data any) (string, error) {
	content, err := FS.ReadFile(name)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(path.Base(name)).Option("missingkey=error").Funcs(funcs).Parse(string(content))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ListFiles returns all files in the embedded filesystem under the given path.
func ListFiles(dir string) ([]string, error) {
	var files []string

	err := fs.WalkDir(FS, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})

	return files, err
}

// ReadFile reads a file from the embedded filesystem.
func ReadFile(name string) ([]byte, error) {
	return FS.ReadFile(name)
}

// OutputName strips the .tmpl suffix from a template's base name.
func OutputName(name string) string {
	return strings.TrimSuffix(path.Base(name), ".tmpl")
}

// IsTemplate reports whether name is rendered rather than copied verbatim.
func IsTemplate(name string) bool {
	return strings.HasSuffix(name, ".tmpl")
}
