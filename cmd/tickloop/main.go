// Command tickloop runs a configured scheduler and inspects its journal.
package main

import (
	"fmt"
	"os"

	"github.com/randalmurphal/tickloop/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
