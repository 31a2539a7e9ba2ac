package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/shakaar/internal/app"
	"github.com/relabs-tech/shakaar/internal/config"
)

func main() {
	configPath := flag.String("config", "./shakaar_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting shakaar status display (MQTT → SSD1306)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunDisplay(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
