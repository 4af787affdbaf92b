// Package main is the entry point for the grantscope CLI binary.
package main

import (
	"os"

	cli "grantscope/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
