// Command routeset routes HTTP requests to endpoints described in route files.
package main

import (
	"os"

	"github.com/getmockd/routeset/pkg/cli"
)

func main() {
	os.Exit(cli.Main())
}
