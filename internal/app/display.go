// Copyright (c) 2026 Fairway Labs
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/fairwaylabs/swingsense/internal/confirm"
	"github.com/fairwaylabs/swingsense/internal/config"
	"github.com/fairwaylabs/swingsense/internal/power"
	"github.com/fairwaylabs/swingsense/internal/session"
	"github.com/fairwaylabs/swingsense/internal/swing"
)

// displayData holds the latest values shown on the wrist display.
type displayData struct {
	mu sync.RWMutex

	mode      power.Mode
	haveMode  bool
	phase     swing.Phase
	lastSwing swing.Analytics
	haveSwing bool
	pending   bool
}

// RunDisplay drives the SSD1306 wrist display: current power mode and
// swing phase, the last swing's numbers, and the confirmation prompt.
func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized at 0x%02X", cfg.DisplayI2CAddr)

	if err := showSplash(dev); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &displayData{}

	// Connect to MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	modeToken := client.Subscribe(cfg.TopicMode, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var e power.Event
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			log.Printf("display: mode unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.mode = e.New
		data.haveMode = true
		data.mu.Unlock()
	})
	modeToken.Wait()
	if modeToken.Error() != nil {
		return modeToken.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicMode)

	phaseToken := client.Subscribe(cfg.TopicPhase, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var e session.PhaseEvent
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			log.Printf("display: phase unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.phase = e.New
		data.mu.Unlock()
	})
	phaseToken.Wait()
	if phaseToken.Error() != nil {
		return phaseToken.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicPhase)

	swingToken := client.Subscribe(cfg.TopicSwing, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var a swing.Analytics
		if err := json.Unmarshal(msg.Payload(), &a); err != nil {
			log.Printf("display: swing unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.lastSwing = a
		data.haveSwing = true
		data.mu.Unlock()
	})
	swingToken.Wait()
	if swingToken.Error() != nil {
		return swingToken.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicSwing)

	confirmToken := client.Subscribe(cfg.TopicConfirmation, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var e confirm.Event
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			log.Printf("display: confirmation unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.pending = e.Kind == confirm.EventPending
		data.mu.Unlock()
	})
	confirmToken.Wait()
	if confirmToken.Error() != nil {
		return confirmToken.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicConfirmation)

	// Display update loop
	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		data.mu.RLock()
		snapshot := displayData{
			mode:      data.mode,
			haveMode:  data.haveMode,
			phase:     data.phase,
			lastSwing: data.lastSwing,
			haveSwing: data.haveSwing,
			pending:   data.pending,
		}
		data.mu.RUnlock()

		if err := updateStatusDisplay(dev, &snapshot); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func updateStatusDisplay(dev *ssd1306.Dev, data *displayData) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if !data.haveMode {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("SwingSense"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
		return dev.Draw(dev.Bounds(), img, image.Point{})
	}

	if data.pending {
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte("Real shot?"))
		drawer.Dot = fixed.P(0, 32)
		drawer.DrawBytes([]byte(fmt.Sprintf("%.1f m/s", data.lastSwing.ClubheadSpeed)))
		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte("confirm / dismiss"))
		return dev.Draw(dev.Bounds(), img, image.Point{})
	}

	drawer.Dot = fixed.P(0, 13)
	drawer.DrawBytes([]byte(fmt.Sprintf("Mode: %s", data.mode)))

	drawer.Dot = fixed.P(0, 26)
	drawer.DrawBytes([]byte(fmt.Sprintf("Phase: %s", data.phase)))

	if data.haveSwing {
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("Club: %5.1f m/s", data.lastSwing.ClubheadSpeed)))

		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte(fmt.Sprintf("Tempo: %4.2f", data.lastSwing.TempoRatio)))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("SwingSense"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Fairway Labs"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
