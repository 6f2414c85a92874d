// Command cotar is the CLI frontend for the COTAR index engine: it wraps
// pkg/cotaridx, internal/tarscan, and internal/convert behind the
// info/index/create/validate/from-mbtiles/shell subcommands.
package main

import (
	"os"
	"strings"

	"github.com/blacha/cotar/internal/cli"
)

func main() {
	environ := os.Environ()
	env := make(map[string]string, len(environ))

	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	exitCode := cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, env)

	os.Exit(exitCode)
}
