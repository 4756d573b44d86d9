// If you are AI: This is the main entrypoint for the media driver.
// It handles configuration loading, driver startup, and graceful shutdown.

package main

import (
	"flag"
	"log"

	"aeronmd/internal/config"
	"aeronmd/internal/driver"
)

// main is the entrypoint for the media driver.
// It loads configuration, starts the agents, and handles graceful shutdown.
func main() {
	configPath := flag.String("config", "", "Path to configuration file (built-in defaults when empty)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else {
		cfg = config.Default()
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	d, err := driver.New(cfg)
	if err != nil {
		log.Fatalf("Failed to start driver: %v", err)
	}

	d.Start()

	shutdownHandler := driver.NewShutdownHandler(d)
	if err := shutdownHandler.Wait(); err != nil {
		log.Fatalf("Shutdown error: %v", err)
	}

	log.Println("Driver shut down cleanly")
}
