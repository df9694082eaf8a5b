package app

import (
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/fairwaylabs/swingsense/internal/classify"
	"github.com/fairwaylabs/swingsense/internal/config"
	"github.com/fairwaylabs/swingsense/internal/gps"
	"github.com/fairwaylabs/swingsense/internal/sampler"
	"github.com/fairwaylabs/swingsense/internal/session"
)

// gpsLocation adapts the GPS reader to the session's location source.
type gpsLocation struct {
	reader *gps.Reader
}

func (g *gpsLocation) Current() (classify.Location, bool) {
	fix, ok := g.reader.Latest()
	if !ok {
		return classify.Location{}, false
	}
	return classify.Location{Latitude: fix.Latitude, Longitude: fix.Longitude}, true
}

// RunSwingProducer runs the on-device sensing pipeline and publishes
// every session event stream as JSON over MQTT. Confirm/dismiss
// commands arrive on their own topic from the console or web UI.
func RunSwingProducer() error {
	log.Println("producer: starting swing sensing pipeline")

	cfg := config.Get()

	// --- Motion source (mock vs real IMU) ---
	var smp *sampler.Sampler
	switch cfg.SamplerSource {
	case "mock":
		log.Println("producer: using mock motion source")
		src := sampler.NewMockSource(0)
		smp = sampler.New(src, nil)
	default:
		standard, batched, err := sampler.OpenMPU9250(cfg.HardwareConfig())
		if err != nil {
			log.Printf("producer: MPU9250 init failed: %v", err)
			return err
		}
		log.Println("producer: MPU9250 initialized")
		smp = sampler.New(standard, batched)
	}

	// --- GPS is optional: without it, practice classification degrades
	// to its time-only fallback ---
	var loc session.LocationProvider
	if reader, err := gps.Open(cfg.GPSSerialPort, uint(cfg.GPSBaudRate), nil); err != nil {
		log.Printf("producer: GPS unavailable, continuing without position: %v", err)
	} else {
		defer reader.Close()
		loc = &gpsLocation{reader: reader}
	}

	sess := session.New(cfg.SessionConfig(), smp, loc)

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Printf("producer: MQTT connect error: %v", token.Error())
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Confirm/dismiss commands from any subscriber UI.
	cmdToken := client.Subscribe(cfg.TopicConfirmCmd, 0, func(_ mqtt.Client, msg mqtt.Message) {
		switch string(msg.Payload()) {
		case "confirm":
			sess.Confirm()
		case "dismiss":
			sess.Dismiss()
		case "pause":
			sess.Pause()
		case "resume":
			sess.Resume()
		case "highfreq":
			sess.ForceHighFrequency()
		default:
			log.Printf("producer: unknown command %q", msg.Payload())
		}
	})
	cmdToken.Wait()
	if cmdToken.Error() != nil {
		return cmdToken.Error()
	}
	log.Printf("producer: subscribed to %s", cfg.TopicConfirmCmd)

	if err := sess.Start(); err != nil {
		log.Printf("producer: session start failed: %v", err)
		return err
	}
	defer sess.Stop()
	log.Println("producer: session started, publishing events")

	publish := func(topic string, v interface{}) {
		payload, err := json.Marshal(v)
		if err != nil {
			log.Printf("producer: marshal error (%s): %v", topic, err)
			return
		}
		if token := client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("producer: publish error (%s): %v", topic, token.Error())
		}
	}

	done := make(chan struct{})

	go func() {
		for {
			select {
			case e := <-sess.Modes():
				log.Printf("producer: mode %s -> %s (interval %s)", e.Old, e.New, e.Effective)
				publish(cfg.TopicMode, e)
			case e := <-sess.Phases():
				publish(cfg.TopicPhase, e)
			case a := <-sess.Swings():
				log.Printf("producer: swing detected: clubhead=%.1fm/s tempo=%.2f path=%s",
					a.ClubheadSpeed, a.TempoRatio, a.SwingPath)
				publish(cfg.TopicSwing, a)
			case e := <-sess.Confirmations():
				log.Printf("producer: confirmation %s", e.Kind)
				publish(cfg.TopicConfirmation, e)
			case n := <-sess.Notices():
				log.Printf("producer: notice: %s", n.Message)
				publish(cfg.TopicNotice, n)
			case <-done:
				return
			}
		}
	}()

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	close(done)
	log.Printf("producer: shutting down, average draw %.3f", sess.AverageDraw())
	return nil
}
