package main

import (
	"flag"
	"log"

	"github.com/fairwaylabs/swingsense/internal/app"
	"github.com/fairwaylabs/swingsense/internal/config"
)

func main() {
	configPath := flag.String("config", "./swingsense_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting swingsense GPS producer (NMEA → MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunGPSProducer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
