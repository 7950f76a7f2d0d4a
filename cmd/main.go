package main

import (
	"os"

	"github.com/45-baron/1-Jour-1-science/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
