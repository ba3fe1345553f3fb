package main

import (
	"os"

	"github.com/neoarchive/neoarchive/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.WithComponent("main").Error(err)
		os.Exit(1)
	}
}
