package main

import (
	"os"

	"rootfind/cmd/rootfind/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
