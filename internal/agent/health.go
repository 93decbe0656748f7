package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"
)

// Pinger is an optional dependency whose reachability is part of health,
// typically the blackboard client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer provides an HTTP health check endpoint for the device daemon.
type HealthServer struct {
	server *http.Server
	engine *Engine
	pinger Pinger
	addr   string
}

// HealthResponse represents the JSON response from the /healthz endpoint.
type HealthResponse struct {
	Status    string   `json:"status"`
	Connected bool     `json:"connected"`
	Modules   []string `json:"modules"`
	Ticks     uint64   `json:"ticks"`
	Commands  uint64   `json:"commands"`
	Error     string   `json:"error,omitempty"`
}

// NewHealthServer creates a health server for engine on addr (":8080").
// pinger may be nil.
func NewHealthServer(engine *Engine, pinger Pinger, addr string) *HealthServer {
	mux := http.NewServeMux()
	hs := &HealthServer{
		server: &http.Server{
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		engine: engine,
		pinger: pinger,
		addr:   addr,
	}
	mux.HandleFunc("/healthz", hs.handleHealthz)
	return hs
}

// Start binds the listener and serves in a background goroutine. Returns an
// error if the port cannot be bound.
func (hs *HealthServer) Start() error {
	ln, err := net.Listen("tcp", hs.addr)
	if err != nil {
		return fmt.Errorf("health server listen on %s: %w", hs.addr, err)
	}
	hs.addr = ln.Addr().String()

	go func() {
		log.Printf("[DEBUG] Health server starting on %s", hs.addr)
		if err := hs.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("[ERROR] Health server error: %v", err)
		}
		log.Printf("[DEBUG] Health server stopped")
	}()
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (hs *HealthServer) Addr() string {
	return hs.addr
}

// Shutdown gracefully shuts down the HTTP server.
func (hs *HealthServer) Shutdown(ctx context.Context) error {
	log.Printf("[DEBUG] Shutting down health server...")
	return hs.server.Shutdown(ctx)
}

// handleHealthz returns 200 while the blackboard (if any) answers PING and
// 503 otherwise. A down console link is reported but is not unhealthy: the
// device is expected to keep reconnecting.
func (hs *HealthServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	stats := hs.engine.Stats()
	response := HealthResponse{
		Status:    "healthy",
		Connected: stats.Connected,
		Modules:   stats.Modules,
		Ticks:     stats.Ticks,
		Commands:  stats.Handled,
	}
	statusCode := http.StatusOK

	if hs.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := hs.pinger.Ping(ctx); err != nil {
			response.Status = "unhealthy"
			response.Error = err.Error()
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("[ERROR] Failed to encode health response: %v", err)
	}
}
