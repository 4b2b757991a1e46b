package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/existential-ai/axon-sdk/simulator"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development
		return true
	},
}

// Client message types
type ClientMessage struct {
	Type    string               `json:"type"`
	Circuit string               `json:"circuit,omitempty"` // "relay" or "signed_constant"
	Value   float64              `json:"value,omitempty"`
	Config  *simulator.SimConfig `json:"config,omitempty"`
}

// Server message types
type ServerMessage struct {
	Type    string               `json:"type"`
	Running *bool                `json:"running,omitempty"`
	Error   string               `json:"error,omitempty"`
	Config  *simulator.SimConfig `json:"config,omitempty"`
	Metrics *simulator.Metrics   `json:"metrics,omitempty"`
	Spikes  map[string][]float64 `json:"spikes,omitempty"`
}

// simState manages a simulation run and UI pacing. The engine itself is
// single-threaded; the mutex serializes ticker steps against client
// commands.
type simState struct {
	sim     *simulator.PredictiveSimulator
	config  simulator.SimConfig
	running bool
	mu      sync.Mutex
	stopCh  chan struct{}
}

func newSimState(config simulator.SimConfig) *simState {
	return &simState{
		config: config,
		stopCh: make(chan struct{}),
	}
}

// start builds the requested circuit, injects its input and begins stepping
func (s *simState) start(circuit string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encoder := simulator.NewDataEncoder()
	var sim *simulator.PredictiveSimulator
	var err error

	switch circuit {
	case "relay":
		net := simulator.NewRelayNetwork("relay")
		sim, err = simulator.NewPredictiveSimulator(net.Network, encoder, s.config)
		if err != nil {
			return err
		}
		sim.ApplyInputSpike(net.Input, 0)
	case "signed_constant":
		net := simulator.NewSignedConstantNetwork("const", encoder, value)
		sim, err = simulator.NewPredictiveSimulator(net.Network, encoder, s.config)
		if err != nil {
			return err
		}
		sim.ApplyInputSpike(net.Recall, 0)
	default:
		return fmt.Errorf("unknown circuit: %q", circuit)
	}

	s.sim = sim
	s.running = true
	return nil
}

// pause stops stepping without discarding the run
func (s *simState) pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// reset discards the current run
func (s *simState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sim = nil
	s.running = false
}

// updateConfig replaces the config used by the next start
func (s *simState) updateConfig(config simulator.SimConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
	return nil
}

func (s *simState) getConfig() simulator.SimConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

func (s *simState) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.sim != nil
}

// step advances the engine by up to maxBatches minimum-time batches.
// Returns true while the queue still has work.
func (s *simState) step(maxBatches int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.sim == nil {
		return false
	}
	for i := 0; i < maxBatches; i++ {
		if !s.sim.Step() {
			s.running = false
			return false
		}
	}
	return true
}

func (s *simState) metrics() *simulator.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sim == nil {
		return simulator.NewMetrics()
	}
	return s.sim.Metrics()
}

func (s *simState) spikes() map[string][]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sim == nil {
		return nil
	}
	// Copy: the log maps are owned by the engine
	spikes := make(map[string][]float64)
	for uid, times := range s.sim.SpikeLog() {
		spikes[uid] = append([]float64(nil), times...)
	}
	return spikes
}

func (s *simState) stop() {
	close(s.stopCh)
}

// uiUpdateLoop periodically steps the engine and streams metrics + spike
// logs to the client. Runs in its own goroutine and controls UI pacing.
func uiUpdateLoop(conn *safeConn, state *simState) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	const batchesPerTick = 64

	for {
		select {
		case <-state.stopCh:
			log.Println("UI update loop stopping")
			return

		case <-ticker.C:
			if !state.isRunning() {
				continue
			}
			drained := !state.step(batchesPerTick)

			metrics := state.metrics()
			updatePrometheusMetrics(metrics)
			if err := conn.WriteJSON(ServerMessage{Type: "metrics", Metrics: metrics}); err != nil {
				log.Printf("Error sending metrics: %v", err)
				return
			}
			if err := conn.WriteJSON(ServerMessage{Type: "spikes", Spikes: state.spikes()}); err != nil {
				log.Printf("Error sending spikes: %v", err)
				return
			}

			if drained {
				running := false
				if err := conn.WriteJSON(ServerMessage{Type: "done", Running: &running}); err != nil {
					log.Printf("Error sending done: %v", err)
					return
				}
			}
		}
	}
}

// safeConn wraps a WebSocket connection with a mutex to prevent concurrent writes
type safeConn struct {
	*websocket.Conn
	writeMu sync.Mutex
}

func (sc *safeConn) WriteJSON(v interface{}) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	return sc.Conn.WriteJSON(v)
}

func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading connection: %v", err)
		return
	}
	defer conn.Close()

	safeConn := &safeConn{Conn: conn}
	log.Println("Client connected")

	config := simulator.DefaultConfig()
	state := newSimState(config)

	running := false
	if err := safeConn.WriteJSON(ServerMessage{Type: "status", Running: &running, Config: &config}); err != nil {
		log.Printf("Error sending status: %v", err)
		return
	}

	go uiUpdateLoop(safeConn, state)

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Error reading message: %v", err)
			}
			break
		}

		log.Printf("Received command: %s", msg.Type)

		switch msg.Type {
		case "start":
			if err := state.start(msg.Circuit, msg.Value); err != nil {
				safeConn.WriteJSON(ServerMessage{Type: "error", Error: err.Error()})
				continue
			}
			running := true
			cfg := state.getConfig()
			safeConn.WriteJSON(ServerMessage{Type: "status", Running: &running, Config: &cfg})

		case "pause":
			state.pause()
			running := false
			cfg := state.getConfig()
			safeConn.WriteJSON(ServerMessage{Type: "status", Running: &running, Config: &cfg})

		case "reset":
			state.reset()
			running := false
			cfg := state.getConfig()
			safeConn.WriteJSON(ServerMessage{Type: "status", Running: &running, Config: &cfg})

		case "config_update":
			if msg.Config != nil {
				if err := state.updateConfig(*msg.Config); err != nil {
					safeConn.WriteJSON(ServerMessage{Type: "error", Error: err.Error()})
					continue
				}
				running := state.isRunning()
				safeConn.WriteJSON(ServerMessage{Type: "status", Running: &running, Config: msg.Config})
			}
		}
	}

	state.stop()
	log.Println("Client disconnected")
}

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	flag.Parse()

	initPrometheusMetrics()

	http.HandleFunc("/ws", handleWebSocket)
	http.Handle("/metrics", promhttp.Handler())

	log.Printf("Server starting on http://localhost%s", *addr)
	log.Printf("WebSocket endpoint: ws://localhost%s/ws", *addr)
	log.Printf("Prometheus endpoint: http://localhost%s/metrics", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
