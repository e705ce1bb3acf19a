// Package main generates the webshell CLI reference.
// It renders the help text of every registered command into Docusaurus
// markdown pages under website/docs/cli.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-webshell/webshell/cmd/webshell/cmd"
)

func main() {
	root, err := findRepoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding repo root: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Repository root: %s\n", root)

	cliDir := filepath.Join(root, "website", "docs", "cli")
	if err := os.MkdirAll(cliDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating cli directory: %v\n", err)
		os.Exit(1)
	}

	if err := writeCategoryFile(cliDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing category file: %v\n", err)
		os.Exit(1)
	}

	for i, c := range cmd.Commands() {
		fmt.Printf("Generating docs for %s...\n", c.Name)
		path := filepath.Join(cliDir, c.Name+".md")
		if err := os.WriteFile(path, []byte(renderCommand(c, i+1)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	fmt.Println("\nDocumentation generated successfully!")
	fmt.Println("Run 'cd website && npm start' to preview")
}

func findRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find go.mod in any parent directory")
		}
		dir = parent
	}
}

func writeCategoryFile(dir string) error {
	content := `{
  "label": "CLI Reference",
  "position": 100,
  "link": {
    "type": "generated-index",
    "description": "Reference for every webshell command."
  }
}
`
	return os.WriteFile(filepath.Join(dir, "_category_.json"), []byte(content), 0o644)
}

// renderCommand renders a command page. Indented blocks of the help text
// (flag and example lists) become fenced code blocks.
func renderCommand(c *cmd.Command, position int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "---\nid: %s\ntitle: webshell %s\nsidebar_position: %d\n---\n\n", c.Name, c.Name, position)
	fmt.Fprintf(&b, "%s.\n\n", c.Short)
	fmt.Fprintf(&b, "```sh\n%s\n```\n\n", c.Usage)

	inBlock := false
	for _, line := range strings.Split(c.Long, "\n") {
		indented := strings.HasPrefix(line, "  ")
		switch {
		case indented && !inBlock:
			b.WriteString("```\n")
			inBlock = true
		case !indented && inBlock:
			b.WriteString("```\n")
			inBlock = false
		}
		if inBlock {
			line = strings.TrimPrefix(line, "  ")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if inBlock {
		b.WriteString("```\n")
	}

	return b.String()
}
