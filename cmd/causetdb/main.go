// Command causetdb is the command-line front end to a causetdb store.
package main

import (
	"os"

	"github.com/YosiSF/EinsteinDB-sub004/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
