package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matthewfrazier/gammasync/internal/engine"
	"github.com/matthewfrazier/gammasync/internal/session"
	"github.com/matthewfrazier/gammasync/internal/spectrum"
)

// SessionController is the slice of the running session the remote
// control surface needs. *session.Session satisfies it.
type SessionController interface {
	Snapshot() session.Snapshot
	Bands() spectrum.BandPowers
	RecentSamples() []float32
	ApplyPreset(name string) error
	SetAmplitude(v float64) float64
	SetNoise(t engine.NoiseType)
	SetNoiseLevel(v float64) float64
	SetPaused(paused bool)
}

// Server exposes session status and controls over HTTP and pushes
// status frames to websocket clients.
type Server struct {
	mu        sync.Mutex
	sess      SessionController
	logger    *log.Logger
	mux       *http.ServeMux
	clients   map[*websocketClient]bool
	broadcast chan []byte
	upgrader  websocket.Upgrader
}

type websocketClient struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// StatusResponse is the JSON shape served on /api/status and pushed
// over the websocket.
type StatusResponse struct {
	Program     string              `json:"program"`
	Preset      string              `json:"preset,omitempty"`
	FrequencyHz float64             `json:"frequencyHz"`
	SecondaryHz float64             `json:"secondaryHz"`
	Phase       float64             `json:"phase"`
	SampleIndex uint64              `json:"sampleIndex"`
	Amplitude   float64             `json:"amplitude"`
	Noise       string              `json:"noise"`
	NoiseLevel  float64             `json:"noiseLevel"`
	Paused      bool                `json:"paused"`
	Binaural    bool                `json:"binaural"`
	Channels    int                 `json:"channels"`
	Backend     string              `json:"backend"`
	SampleRate  float64             `json:"sampleRate"`
	UptimeSec   float64             `json:"uptimeSec"`
	Buffers     uint64              `json:"buffers"`
	Samples     uint64              `json:"samples"`
	Peak        float64             `json:"peak"`
	Bands       spectrum.BandPowers `json:"bands"`
}

// UpdateRequest is a partial update: only non-nil fields are applied.
type UpdateRequest struct {
	Preset     *string  `json:"preset,omitempty"`
	Amplitude  *float64 `json:"amplitude,omitempty"`
	Noise      *string  `json:"noise,omitempty"`
	NoiseLevel *float64 `json:"noiseLevel,omitempty"`
	Paused     *bool    `json:"paused,omitempty"`
}

// PresetInfo describes one selectable preset.
type PresetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NewServer wires the handlers for the given session.
func NewServer(sess SessionController, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stdout, "[web] ", log.LstdFlags)
	}
	s := &Server{
		sess:      sess,
		logger:    logger,
		mux:       http.NewServeMux(),
		clients:   make(map[*websocketClient]bool),
		broadcast: make(chan []byte, 256),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/update", s.handleUpdate)
	s.mux.HandleFunc("/api/presets", s.handlePresets)
	s.mux.HandleFunc("/api/samples", s.handleSamples)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	return s
}

// Handler returns the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until the listener fails. Run it on its own goroutine.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.logger.Printf("control server on http://0.0.0.0%s", addr)

	go s.broadcastLoop()
	go s.statusUpdateLoop()

	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) status() StatusResponse {
	snap := s.sess.Snapshot()
	return StatusResponse{
		Program:     snap.Program,
		Preset:      snap.Preset,
		FrequencyHz: snap.FrequencyHz,
		SecondaryHz: snap.SecondaryHz,
		Phase:       snap.Phase,
		SampleIndex: snap.SampleIndex,
		Amplitude:   snap.Amplitude,
		Noise:       snap.Noise,
		NoiseLevel:  snap.NoiseLevel,
		Paused:      snap.Paused,
		Binaural:    snap.Binaural,
		Channels:    snap.Channels,
		Backend:     snap.Backend,
		SampleRate:  snap.SampleRate,
		UptimeSec:   snap.Uptime.Seconds(),
		Buffers:     snap.Buffers,
		Samples:     snap.Samples,
		Peak:        snap.Peak,
		Bands:       s.sess.Bands(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.status())
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Preset != nil {
		if err := s.sess.ApplyPreset(*req.Preset); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if req.Amplitude != nil {
		s.sess.SetAmplitude(*req.Amplitude)
	}
	if req.Noise != nil {
		noise, err := engine.ParseNoiseType(*req.Noise)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.sess.SetNoise(noise)
	}
	if req.NoiseLevel != nil {
		s.sess.SetNoiseLevel(*req.NoiseLevel)
	}
	if req.Paused != nil {
		s.sess.SetPaused(*req.Paused)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.status())
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	presets := session.Presets()
	infos := make([]PresetInfo, len(presets))
	for i, p := range presets {
		infos[i] = PresetInfo{Name: p.Name, Description: p.Description}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(infos)
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	samples := s.sess.RecentSamples()
	if samples == nil {
		samples = []float32{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(samples)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade error: %v", err)
		return
	}

	client := &websocketClient{
		conn:   conn,
		send:   make(chan []byte, 256),
		server: s,
	}

	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()

	go client.writePump()
	go client.readPump()
}

func (s *Server) broadcastLoop() {
	for message := range s.broadcast {
		s.mu.Lock()
		for client := range s.clients {
			select {
			case client.send <- message:
			default:
				close(client.send)
				delete(s.clients, client)
			}
		}
		s.mu.Unlock()
	}
}

func (s *Server) statusUpdateLoop() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		data, err := json.Marshal(s.status())
		if err != nil {
			continue
		}
		select {
		case s.broadcast <- data:
		default:
			// drop when the channel is full
		}
	}
}

func (c *websocketClient) readPump() {
	defer func() {
		c.server.mu.Lock()
		delete(c.server.clients, c)
		c.server.mu.Unlock()
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
	}
}

func (c *websocketClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
