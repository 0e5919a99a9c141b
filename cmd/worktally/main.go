package main

import (
	"fmt"
	"os"

	"worktally/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(&cli.App{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
