package app

import (
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/fairwaylabs/swingsense/internal/config"
	"github.com/fairwaylabs/swingsense/internal/gps"
)

// RunGPSProducer opens the GPS serial port and publishes every parsed
// fix as JSON to MQTT. Runs standalone so the swing producer and the
// course-tracking tools can share one receiver.
func RunGPSProducer() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDGPS)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("gps producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	reader, err := gps.Open(cfg.GPSSerialPort, uint(cfg.GPSBaudRate), func(fix gps.Fix) {
		payload, err := json.Marshal(fix)
		if err != nil {
			log.Printf("gps producer: marshal error: %v", err)
			return
		}
		if token := client.Publish(cfg.TopicGPS, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("gps producer: publish error: %v", token.Error())
			return
		}
		if fix.Valid() {
			log.Printf("gps producer: published fix lat=%.6f lon=%.6f", fix.Latitude, fix.Longitude)
		}
	})
	if err != nil {
		return err
	}
	defer reader.Close()

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("gps producer: shutting down")
	return nil
}
