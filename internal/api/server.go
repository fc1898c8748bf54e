package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/kmswan/glowcast/internal/config"
	"github.com/kmswan/glowcast/internal/effects"
	"github.com/kmswan/glowcast/internal/logger"
	"github.com/kmswan/glowcast/internal/output"
	"github.com/kmswan/glowcast/internal/overlay"
)

// Server is the control-plane HTTP server: effect settings, overlay
// position, telemetry ingest and the MJPEG preview endpoints.
type Server struct {
	router    *mux.Router
	store     *effects.Store
	processor *effects.Processor
	renderer  *overlay.Renderer
	telemetry *overlay.Telemetry
	configMgr *config.Manager
	mjpeg     *output.MJPEGOutput
	upgrader  websocket.Upgrader

	subsMu sync.Mutex
	subs   map[*websocket.Conn]struct{}
}

// NewServer wires the API around the running pipeline's collaborators.
// renderer and mjpeg may be nil when those subsystems are disabled.
func NewServer(processor *effects.Processor, renderer *overlay.Renderer, telemetry *overlay.Telemetry, configMgr *config.Manager, mjpeg *output.MJPEGOutput) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		store:     processor.Store(),
		processor: processor,
		renderer:  renderer,
		telemetry: telemetry,
		configMgr: configMgr,
		mjpeg:     mjpeg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs: make(map[*websocket.Conn]struct{}),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/effects", s.handleGetEffects).Methods("GET")
	api.HandleFunc("/effects", s.handleUpdateEffects).Methods("PUT")
	api.HandleFunc("/effects/stream", s.handleEffectsStream)

	api.HandleFunc("/overlay/position", s.handleGetOverlayPosition).Methods("GET")
	api.HandleFunc("/overlay/position", s.handleSetOverlayPosition).Methods("PUT")

	api.HandleFunc("/telemetry", s.handlePushTelemetry).Methods("POST")

	api.HandleFunc("/stats", s.handleStats).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	if s.mjpeg != nil {
		s.router.HandleFunc("/stream", s.mjpeg.StreamHandler())
		s.router.HandleFunc("/stream/stats", s.mjpeg.StatsHandler())
	}
}

// Handler returns the root handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start runs the HTTP server on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logger.WithComponent("api").Info().Str("addr", addr).Msg("control server listening")
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGetEffects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Snapshot())
}

func (s *Server) handleUpdateEffects(w http.ResponseWriter, r *http.Request) {
	settings := s.store.Snapshot()
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, fmt.Sprintf("invalid settings payload: %v", err), http.StatusBadRequest)
		return
	}
	s.store.Update(settings)
	s.configMgr.UpdateEffects(settings)
	if err := s.configMgr.Save(); err != nil {
		logger.WithComponent("api").Warn().Err(err).Msg("failed to persist settings")
	}
	s.broadcastSettings(settings)
	writeJSON(w, settings)
}

type positionPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *Server) handleGetOverlayPosition(w http.ResponseWriter, r *http.Request) {
	if s.renderer == nil {
		http.Error(w, "overlay disabled", http.StatusNotFound)
		return
	}
	x, y := s.renderer.Position()
	writeJSON(w, positionPayload{X: x, Y: y})
}

func (s *Server) handleSetOverlayPosition(w http.ResponseWriter, r *http.Request) {
	if s.renderer == nil {
		http.Error(w, "overlay disabled", http.StatusNotFound)
		return
	}
	var p positionPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, fmt.Sprintf("invalid position payload: %v", err), http.StatusBadRequest)
		return
	}
	s.renderer.SetPosition(p.X, p.Y)
	s.configMgr.UpdateOverlayPosition(p.X, p.Y)
	if err := s.configMgr.Save(); err != nil {
		logger.WithComponent("api").Warn().Err(err).Msg("failed to persist overlay position")
	}
	writeJSON(w, p)
}

func (s *Server) handlePushTelemetry(w http.ResponseWriter, r *http.Request) {
	var sample overlay.Sample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		http.Error(w, fmt.Sprintf("invalid telemetry payload: %v", err), http.StatusBadRequest)
		return
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	s.telemetry.Push(sample)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"fade":      s.processor.Fade(),
		"telemetry": s.telemetry.Len(),
	}
	if s.mjpeg != nil {
		stats["output"] = s.mjpeg.GetStats()
	}
	writeJSON(w, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleEffectsStream upgrades to a websocket and pushes a settings
// snapshot on every change, so control UIs stay in sync without polling.
func (s *Server) handleEffectsStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithComponent("api").Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	// The initial snapshot goes out before the conn is registered:
	// broadcastSettings writes under subsMu, so once registered the conn
	// never has two concurrent writers.
	if err := conn.WriteJSON(s.store.Snapshot()); err != nil {
		conn.Close()
		return
	}

	s.subsMu.Lock()
	s.subs[conn] = struct{}{}
	s.subsMu.Unlock()

	// Reader loop exists only to notice disconnects.
	go func() {
		defer s.dropSubscriber(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) dropSubscriber(conn *websocket.Conn) {
	s.subsMu.Lock()
	if _, ok := s.subs[conn]; ok {
		delete(s.subs, conn)
		conn.Close()
	}
	s.subsMu.Unlock()
}

func (s *Server) broadcastSettings(settings effects.Settings) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for conn := range s.subs {
		if err := conn.WriteJSON(settings); err != nil {
			delete(s.subs, conn)
			conn.Close()
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
