// Package main is the entry point for dashhlsctl, the control-plane CLI.
package main

import (
	"os"

	"dash2hlsd/cmd/dashhlsctl/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
