// Copyright (c) 2026 Fairway Labs
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

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

	log.Println("starting swingsense swing producer (sensors → MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunSwingProducer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
