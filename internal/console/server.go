// Package console is the operator side of the device link: a WebSocket
// endpoint that accepts one device, and a line-oriented REPL that sends it
// pings and commands.
package console

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dyluth/ember/internal/printer"
	"github.com/gorilla/websocket"
)

// Path is where devices connect.
const Path = "/ws"

// Server accepts device connections, one at a time.
type Server struct {
	out      *printer.Printer
	upgrader websocket.Upgrader
	now      func() time.Time

	mu        sync.RWMutex
	session   *Session
	connected chan *Session

	httpSrv *http.Server
	ln      net.Listener
}

// NewServer returns a Server reporting to out.
func NewServer(out *printer.Printer) *Server {
	return &Server{
		out: out,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Devices are not browsers and send no meaningful Origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		now:       time.Now,
		connected: make(chan *Session, 1),
	}
}

// Handler serves the device endpoint at Path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handleWS)
	return mux
}

// Start listens on addr and serves in the background.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.ln = ln
	s.httpSrv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[Console] Server error: %v", err)
		}
	}()
	return nil
}

// Addr is the listening address, valid after Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown closes the active session and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if sess := s.Session(); sess != nil {
		sess.Close()
	}
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Session returns the connected device, or nil.
func (s *Server) Session() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Connected delivers each new session. Slow readers miss notifications, not
// sessions: Session() always has the current one.
func (s *Server) Connected() <-chan *Session {
	return s.connected
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.Session() != nil {
		http.Error(w, "device already connected", http.StatusConflict)
		log.Printf("[Console] Rejected connection from %s: device already connected", r.RemoteAddr)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Console] Upgrade failed from %s: %v", r.RemoteAddr, err)
		return
	}

	sess := newSession(conn, r.RemoteAddr, s.out, s.now)

	s.mu.Lock()
	if s.session != nil {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.session = sess
	s.mu.Unlock()

	s.out.Success("Connection established: %s\n", r.RemoteAddr)

	go sess.writePump()
	go func() {
		sess.readPump()
		s.mu.Lock()
		if s.session == sess {
			s.session = nil
		}
		s.mu.Unlock()
		s.out.Warning("Connection closed: %s\n", sess.Remote())
	}()

	if _, err := sess.RequestTimeSync(); err != nil {
		log.Printf("[Console] Time sync request failed: %v", err)
	}

	select {
	case s.connected <- sess:
	default:
	}
}
