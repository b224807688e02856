package main

import (
	"os"

	"github.com/keshon/botcmd/cmd/cli/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
