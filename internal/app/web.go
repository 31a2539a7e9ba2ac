package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/shakaar/internal/config"
	"github.com/relabs-tech/shakaar/internal/logging"
	"github.com/relabs-tech/shakaar/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// sampleHub keeps the latest sample and fans new ones out to websocket
// clients.
type sampleHub struct {
	mu      sync.RWMutex
	last    telemetry.Sample
	have    bool
	clients map[chan telemetry.Sample]struct{}
}

func newSampleHub() *sampleHub {
	return &sampleHub{clients: map[chan telemetry.Sample]struct{}{}}
}

func (h *sampleHub) update(s telemetry.Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = s
	h.have = true
	for ch := range h.clients {
		// Slow clients miss samples rather than stall the subscriber.
		select {
		case ch <- s:
		default:
		}
	}
}

func (h *sampleHub) latest() (telemetry.Sample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last, h.have
}

func (h *sampleHub) join() chan telemetry.Sample {
	ch := make(chan telemetry.Sample, 8)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *sampleHub) leave(ch chan telemetry.Sample) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

func (h *sampleHub) handleLatest(w http.ResponseWriter, r *http.Request) {
	s, ok := h.latest()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s)
}

func (h *sampleHub) handleWS(log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		ch := h.join()
		defer h.leave(ch)

		// The read side only watches for the client going away.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
						log.Warnf("websocket error: %v", err)
					}
					return
				}
			}
		}()

		if s, ok := h.latest(); ok {
			if err := conn.WriteJSON(s); err != nil {
				return
			}
		}
		for {
			select {
			case <-gone:
				return
			case s := <-ch:
				if err := conn.WriteJSON(s); err != nil {
					return
				}
			}
		}
	}
}

func RunWeb() error {
	cfg := config.Get()

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.With("web")

	hub := newSampleHub()
	client, err := telemetry.Subscribe(cfg.MQTTBroker, cfg.MQTTClientIDWeb, cfg.TopicTelemetry, log, hub.update)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/drive", hub.handleLatest)
	mux.HandleFunc("/ws", hub.handleWS(log))
	mux.Handle("/", http.FileServer(http.Dir("web")))

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Infof("web server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
