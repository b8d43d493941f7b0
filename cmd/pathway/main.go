// Command pathway runs graph pattern queries against fixtures and SQLite
// graph databases.
package main

import (
	"os"

	"github.com/roach88/pathway/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
