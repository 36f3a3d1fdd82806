package main

import (
	"os"

	"github.com/calvinalkan/issueql/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Stdout, os.Stderr, os.Args[1:]))
}
