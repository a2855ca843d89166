package main

import (
	"fmt"
	"os"

	"condor-sentinel/internal/cli"
	"condor-sentinel/internal/config"
	"condor-sentinel/internal/logging"
)

func main() {
	configDir := os.Getenv("CONDOR_CONFIG_DIR")

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
