package main

import (
	"os"

	"github.com/fjglira/mddoctest/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
