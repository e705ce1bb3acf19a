// Command webshell generates and syncs native shells for web applications.
package main

import (
	"fmt"
	"os"

	"github.com/go-webshell/webshell/cmd/webshell/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
