package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/fairwaylabs/swingsense/internal/confirm"
	"github.com/fairwaylabs/swingsense/internal/config"
	"github.com/fairwaylabs/swingsense/internal/power"
	"github.com/fairwaylabs/swingsense/internal/session"
	"github.com/fairwaylabs/swingsense/internal/swing"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// webStatus is the aggregate the /api/status endpoint serves: the most
// recent value seen on each topic.
type webStatus struct {
	mu sync.RWMutex

	Mode         *power.Event        `json:"mode,omitempty"`
	Phase        *session.PhaseEvent `json:"phase,omitempty"`
	LastSwing    *swing.Analytics    `json:"last_swing,omitempty"`
	Confirmation *confirm.Event      `json:"confirmation,omitempty"`
	Notice       *session.Notice     `json:"notice,omitempty"`
}

// wsHub fans every pipeline event out to the connected browsers.
type wsHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *wsHub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

func (h *wsHub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

// broadcast sends one event envelope to every client, dropping clients
// whose writes fail.
func (h *wsHub) broadcast(kind string, payload []byte) {
	msg, err := json.Marshal(struct {
		Kind string          `json:"kind"`
		Data json.RawMessage `json:"data"`
	}{Kind: kind, Data: payload})
	if err != nil {
		log.Printf("web: broadcast marshal error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.Close()
			delete(h.conns, c)
		}
	}
}

// RunWeb serves the live dashboard: latest status over JSON, a
// websocket feed of every pipeline event, and confirm/dismiss buttons
// that publish commands back to the producer.
func RunWeb() error {
	cfg := config.Get()

	status := &webStatus{}
	hub := newWSHub()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	subscribe := func(topic, kind string, store func([]byte) error) error {
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			if err := store(msg.Payload()); err != nil {
				log.Printf("web: %s unmarshal error: %v", kind, err)
				return
			}
			hub.broadcast(kind, msg.Payload())
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("web: subscribed to %s", topic)
		return nil
	}

	if err := subscribe(cfg.TopicMode, "mode", func(p []byte) error {
		var e power.Event
		if err := json.Unmarshal(p, &e); err != nil {
			return err
		}
		status.mu.Lock()
		status.Mode = &e
		status.mu.Unlock()
		return nil
	}); err != nil {
		return err
	}

	if err := subscribe(cfg.TopicPhase, "phase", func(p []byte) error {
		var e session.PhaseEvent
		if err := json.Unmarshal(p, &e); err != nil {
			return err
		}
		status.mu.Lock()
		status.Phase = &e
		status.mu.Unlock()
		return nil
	}); err != nil {
		return err
	}

	if err := subscribe(cfg.TopicSwing, "swing", func(p []byte) error {
		var a swing.Analytics
		if err := json.Unmarshal(p, &a); err != nil {
			return err
		}
		status.mu.Lock()
		status.LastSwing = &a
		status.mu.Unlock()
		return nil
	}); err != nil {
		return err
	}

	if err := subscribe(cfg.TopicConfirmation, "confirmation", func(p []byte) error {
		var e confirm.Event
		if err := json.Unmarshal(p, &e); err != nil {
			return err
		}
		status.mu.Lock()
		status.Confirmation = &e
		status.mu.Unlock()
		return nil
	}); err != nil {
		return err
	}

	if err := subscribe(cfg.TopicNotice, "notice", func(p []byte) error {
		var n session.Notice
		if err := json.Unmarshal(p, &n); err != nil {
			return err
		}
		status.mu.Lock()
		status.Notice = &n
		status.mu.Unlock()
		return nil
	}); err != nil {
		return err
	}

	// JSON API endpoint: latest status
	http.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		status.mu.RLock()
		defer status.mu.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	command := func(cmd string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, "POST only", http.StatusMethodNotAllowed)
				return
			}
			if token := client.Publish(cfg.TopicConfirmCmd, 0, false, cmd); token.Wait() && token.Error() != nil {
				log.Printf("web: command publish error: %v", token.Error())
				http.Error(w, "publish failed", http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusAccepted)
		}
	}
	http.HandleFunc("/api/confirm", command("confirm"))
	http.HandleFunc("/api/dismiss", command("dismiss"))
	http.HandleFunc("/api/pause", command("pause"))
	http.HandleFunc("/api/resume", command("resume"))

	// Websocket live feed
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		hub.add(conn)
		log.Printf("web: websocket client connected from %s", r.RemoteAddr)

		// Drain reads so pings and closes are processed.
		go func() {
			defer hub.remove(conn)
			defer conn.Close()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	// Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
