package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kmswan/glowcast/internal/logger"
)

// MJPEGOutput streams processed frames as Motion JPEG over HTTP, so the
// composited output can be previewed in any browser or pulled by an
// encoder.
type MJPEGOutput struct {
	config  Config
	running bool
	mu      sync.RWMutex

	frameMu    sync.RWMutex
	lastUpdate time.Time

	clientsMu sync.RWMutex
	clients   map[string]chan []byte

	frameCount uint64
	startTime  time.Time
}

// NewMJPEGOutput creates a new MJPEG stream output.
func NewMJPEGOutput(config Config) *MJPEGOutput {
	if config.Quality == 0 {
		config.Quality = 90
	}
	return &MJPEGOutput{
		config:  config,
		clients: make(map[string]chan []byte),
	}
}

func (m *MJPEGOutput) Name() string { return "MJPEG HTTP Stream" }

// Start initializes the output. The HTTP handlers are registered
// separately via StreamHandler and StatsHandler.
func (m *MJPEGOutput) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("MJPEG output already running")
	}
	m.running = true
	m.startTime = time.Now()
	m.frameCount = 0
	logger.WithComponent("output").Info().
		Int("width", m.config.Width).Int("height", m.config.Height).Int("fps", m.config.FPS).
		Msg("MJPEG output started")
	return nil
}

// Stop shuts down the output and disconnects all clients.
func (m *MJPEGOutput) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return nil
	}
	m.running = false

	m.clientsMu.Lock()
	for _, ch := range m.clients {
		close(ch)
	}
	m.clients = make(map[string]chan []byte)
	m.clientsMu.Unlock()

	logger.WithComponent("output").Info().Uint64("frames", m.frameCount).Msg("MJPEG output stopped")
	return nil
}

// IsRunning reports whether the output is active.
func (m *MJPEGOutput) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// WriteFrame encodes the frame and fans it out to all connected clients.
// A client that can't keep up skips frames instead of backpressuring the
// pipeline.
func (m *MJPEGOutput) WriteFrame(frame *image.RGBA) error {
	if !m.IsRunning() {
		return fmt.Errorf("MJPEG output not running")
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, frame, &jpeg.Options{Quality: m.config.Quality}); err != nil {
		return fmt.Errorf("failed to encode JPEG: %w", err)
	}
	jpegData := buf.Bytes()

	m.frameMu.Lock()
	m.lastUpdate = time.Now()
	m.frameCount++
	m.frameMu.Unlock()

	m.clientsMu.RLock()
	for _, ch := range m.clients {
		select {
		case ch <- jpegData:
		default:
			// Client is slow, skip this frame.
		}
	}
	m.clientsMu.RUnlock()
	return nil
}

// StreamHandler serves the multipart MJPEG stream.
func (m *MJPEGOutput) StreamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Connection", "close")

		clientID := uuid.NewString()
		frameChan := make(chan []byte, 2)

		m.clientsMu.Lock()
		m.clients[clientID] = frameChan
		clientCount := len(m.clients)
		m.clientsMu.Unlock()

		logger.WithComponent("output").Info().
			Str("client", clientID).Int("total", clientCount).
			Msg("MJPEG client connected")

		defer func() {
			m.clientsMu.Lock()
			delete(m.clients, clientID)
			remaining := len(m.clients)
			m.clientsMu.Unlock()
			logger.WithComponent("output").Info().
				Str("client", clientID).Int("remaining", remaining).
				Msg("MJPEG client disconnected")
		}()

		for jpegData := range frameChan {
			if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpegData)); err != nil {
				return
			}
			if _, err := w.Write(jpegData); err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "\r\n"); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}

// Stats is the JSON payload served by StatsHandler.
type Stats struct {
	Running    bool    `json:"running"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	TargetFPS  int     `json:"target_fps"`
	ActualFPS  float64 `json:"actual_fps"`
	Frames     uint64  `json:"frames"`
	Clients    int     `json:"clients"`
	UptimeSecs float64 `json:"uptime_secs"`
}

// GetStats returns a snapshot of the stream statistics.
func (m *MJPEGOutput) GetStats() Stats {
	m.mu.RLock()
	running := m.running
	startTime := m.startTime
	m.mu.RUnlock()

	m.frameMu.RLock()
	frames := m.frameCount
	m.frameMu.RUnlock()

	m.clientsMu.RLock()
	clients := len(m.clients)
	m.clientsMu.RUnlock()

	var fps, uptime float64
	if running && !startTime.IsZero() {
		uptime = time.Since(startTime).Seconds()
		if uptime > 0 {
			fps = float64(frames) / uptime
		}
	}
	return Stats{
		Running:    running,
		Width:      m.config.Width,
		Height:     m.config.Height,
		TargetFPS:  m.config.FPS,
		ActualFPS:  fps,
		Frames:     frames,
		Clients:    clients,
		UptimeSecs: uptime,
	}
}

// StatsHandler serves stream statistics as JSON.
func (m *MJPEGOutput) StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.GetStats())
	}
}
