// Command inklive keeps an ink project compiled and playing while it is edited.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/inklive/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
