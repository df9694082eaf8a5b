package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/fairwaylabs/swingsense/internal/confirm"
	"github.com/fairwaylabs/swingsense/internal/config"
	"github.com/fairwaylabs/swingsense/internal/gps"
	"github.com/fairwaylabs/swingsense/internal/power"
	"github.com/fairwaylabs/swingsense/internal/session"
	"github.com/fairwaylabs/swingsense/internal/swing"
)

// RunConsole subscribes to every pipeline topic and prints events as
// they arrive. Typing "confirm" or "dismiss" (or just c/d) answers a
// pending shot confirmation.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to power mode changes
	modeToken := client.Subscribe(cfg.TopicMode, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var e power.Event
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			log.Printf("console: mode unmarshal error: %v", err)
			return
		}
		fmt.Printf("[MODE ]  %s -> %s  interval=%s\n", e.Old, e.New, e.Effective)
	})
	modeToken.Wait()
	if modeToken.Error() != nil {
		return modeToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicMode)

	// Subscribe to swing phase transitions
	phaseToken := client.Subscribe(cfg.TopicPhase, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var e session.PhaseEvent
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			log.Printf("console: phase unmarshal error: %v", err)
			return
		}
		fmt.Printf("[PHASE]  %s -> %s\n", e.Old, e.New)
	})
	phaseToken.Wait()
	if phaseToken.Error() != nil {
		return phaseToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicPhase)

	// Subscribe to swing analytics
	swingToken := client.Subscribe(cfg.TopicSwing, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var a swing.Analytics
		if err := json.Unmarshal(msg.Payload(), &a); err != nil {
			log.Printf("console: swing unmarshal error: %v", err)
			return
		}
		fmt.Printf(
			"[SWING]  clubhead=%5.1fm/s  hand=%5.1fm/s  tempo=%.2f  peak=%.1fg  rot=%.0fdps  path=%s  impact=%t\n",
			a.ClubheadSpeed, a.PeakHandSpeed, a.TempoRatio,
			a.PeakAccelMag, a.PeakRotationMag, a.SwingPath, a.ImpactDetected,
		)
	})
	swingToken.Wait()
	if swingToken.Error() != nil {
		return swingToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicSwing)

	// Subscribe to confirmation lifecycle
	confirmToken := client.Subscribe(cfg.TopicConfirmation, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var e confirm.Event
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			log.Printf("console: confirmation unmarshal error: %v", err)
			return
		}
		switch e.Kind {
		case confirm.EventPending:
			fmt.Println("[SHOT ]  was that a real shot? type confirm/dismiss")
		default:
			fmt.Printf("[SHOT ]  %s\n", e.Kind)
		}
	})
	confirmToken.Wait()
	if confirmToken.Error() != nil {
		return confirmToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicConfirmation)

	// Subscribe to notices
	noticeToken := client.Subscribe(cfg.TopicNotice, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var n session.Notice
		if err := json.Unmarshal(msg.Payload(), &n); err != nil {
			log.Printf("console: notice unmarshal error: %v", err)
			return
		}
		fmt.Printf("[NOTE ]  %s (until %s)\n", n.Message, n.ExpiresAt.Format("15:04:05"))
	})
	noticeToken.Wait()
	if noticeToken.Error() != nil {
		return noticeToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicNotice)

	// Subscribe to GPS fixes
	gpsToken := client.Subscribe(cfg.TopicGPS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var f gps.Fix
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			log.Printf("console: gps unmarshal error: %v", err)
			return
		}
		fmt.Printf("[GPS  ]  lat=%.6f lon=%.6f speed=%.1fkn validity=%s\n",
			f.Latitude, f.Longitude, f.SpeedKnots, f.Validity)
	})
	gpsToken.Wait()
	if gpsToken.Error() != nil {
		return gpsToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicGPS)

	// Read commands from stdin and forward them to the producer.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			var cmd string
			switch strings.TrimSpace(scanner.Text()) {
			case "confirm", "c", "y":
				cmd = "confirm"
			case "dismiss", "d", "n":
				cmd = "dismiss"
			case "pause":
				cmd = "pause"
			case "resume":
				cmd = "resume"
			case "highfreq", "hf":
				cmd = "highfreq"
			case "":
				continue
			default:
				fmt.Println("commands: confirm, dismiss, pause, resume, highfreq")
				continue
			}
			if token := client.Publish(cfg.TopicConfirmCmd, 0, false, cmd); token.Wait() && token.Error() != nil {
				log.Printf("console: command publish error: %v", token.Error())
			}
		}
	}()

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
