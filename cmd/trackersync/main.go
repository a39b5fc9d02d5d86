// Package main is the entry point for the trackersync CLI.
package main

import (
	"os"

	"github.com/tracknest/trackersync/cmd/trackersync/app"
	"github.com/tracknest/trackersync/internal/logger"
)

func main() {
	defer logger.Sync()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
