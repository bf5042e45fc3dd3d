// Command evrule compiles and fires declarative event rules.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/evrule/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "evrule:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
