package main

import (
	"os"

	"github.com/toyz/bindgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
