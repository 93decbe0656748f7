package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dyluth/ember/internal/printer"
	"github.com/dyluth/ember/pkg/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
	sendQueueSize  = 64
)

// ErrSessionClosed is returned when sending on a closed session.
var ErrSessionClosed = errors.New("device session closed")

// Session is one connected device. Frames are written by a single writer
// goroutine; the reader renders everything the device sends.
type Session struct {
	conn   *websocket.Conn
	remote string
	out    *printer.Printer
	now    func() time.Time

	sendCh    chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once

	mu           sync.Mutex
	pendingPings map[string]float64
	pendingSyncs map[string]float64
	offset       float64
	synced       bool
}

func newSession(conn *websocket.Conn, remote string, out *printer.Printer, now func() time.Time) *Session {
	return &Session{
		conn:         conn,
		remote:       remote,
		out:          out,
		now:          now,
		sendCh:       make(chan []byte, sendQueueSize),
		closeCh:      make(chan struct{}),
		pendingPings: make(map[string]float64),
		pendingSyncs: make(map[string]float64),
	}
}

// Remote is the device's address.
func (s *Session) Remote() string {
	return s.remote
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.closeCh
}

// Close ends the session. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closeCh)
		s.conn.Close()
	})
}

// Offset returns the last measured device clock offset in seconds: adding it
// to a device timestamp yields console time. ok is false before the first sync.
func (s *Session) Offset() (offset float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset, s.synced
}

func (s *Session) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}
	select {
	case <-s.closeCh:
		return ErrSessionClosed
	default:
	}
	select {
	case s.sendCh <- data:
		return nil
	case <-s.closeCh:
		return ErrSessionClosed
	default:
		return fmt.Errorf("send queue full")
	}
}

// RequestTimeSync starts a clock-offset exchange and returns its id.
func (s *Session) RequestTimeSync() (string, error) {
	id := uuid.New().String()
	sent := protocol.Seconds(s.now())

	s.mu.Lock()
	s.pendingSyncs[id] = sent
	s.mu.Unlock()

	if err := s.send(protocol.TimeSyncRequest{Type: protocol.TypeTimeSyncRequest, ID: id, ServerSendTime: sent}); err != nil {
		s.mu.Lock()
		delete(s.pendingSyncs, id)
		s.mu.Unlock()
		return "", err
	}
	s.out.Faint("Sent time sync request: %s\n", id)
	return id, nil
}

// Ping sends a latency probe and returns its id.
func (s *Session) Ping() (string, error) {
	id := uuid.New().String()
	sent := protocol.Seconds(s.now())

	s.mu.Lock()
	s.pendingPings[id] = sent
	s.mu.Unlock()

	err := s.send(protocol.Ping{
		Type:          protocol.TypePing,
		ID:            id,
		PingTimestamp: sent,
		Data:          json.RawMessage(`{"message":"Ping request"}`),
	})
	if err != nil {
		s.mu.Lock()
		delete(s.pendingPings, id)
		s.mu.Unlock()
		return "", err
	}
	s.out.Tagged("PING", "Sent ping with ID: %s", id)
	return id, nil
}

// SendCommand sends a command frame with args as data.arguments.
func (s *Session) SendCommand(name string, args []string) error {
	cmd, err := protocol.NewCommand(name, args, protocol.Seconds(s.now()))
	if err != nil {
		return err
	}
	return s.send(cmd)
}

func (s *Session) writePump() {
	defer s.Close()
	for {
		select {
		case msg := <-s.sendCh:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[Console] Write error: %v", err)
				return
			}
		case <-s.closeCh:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (s *Session) readPump() {
	defer s.Close()
	s.conn.SetReadLimit(maxMessageSize)
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[Console] Read error: %v", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		s.handleFrame(data)
	}
}

// pongFrame decodes client_timestamp as optional.
type pongFrame struct {
	ID              string   `json:"id"`
	PingTimestamp   float64  `json:"ping_timestamp"`
	ClientTimestamp *float64 `json:"client_timestamp"`
}

func (s *Session) handleFrame(raw []byte) {
	received := protocol.Seconds(s.now())

	typ, err := protocol.Peek(raw)
	if err != nil && !errors.Is(err, protocol.ErrNoType) {
		s.out.Tagged("WARN", "Received non-JSON message: %s", raw)
		return
	}

	switch typ {
	case protocol.TypePong:
		var p pongFrame
		if err := json.Unmarshal(raw, &p); err != nil {
			s.out.Tagged("WARN", "Error processing message: %v", err)
			return
		}
		s.handlePong(p, received)

	case protocol.TypeTimeSyncResponse:
		var r protocol.TimeSyncResponse
		if err := json.Unmarshal(raw, &r); err != nil {
			s.out.Tagged("WARN", "Error processing message: %v", err)
			return
		}
		s.handleTimeSync(r, received)

	default:
		var r protocol.Response
		if err := json.Unmarshal(raw, &r); err != nil {
			s.out.Tagged("WARN", "Error processing message: %v", err)
			return
		}
		s.handleMessage(r)
	}
}

func (s *Session) handlePong(p pongFrame, received float64) {
	s.mu.Lock()
	delete(s.pendingPings, p.ID)
	offset := s.offset
	s.mu.Unlock()

	if p.ClientTimestamp == nil {
		s.out.Tagged("PONG", "ID: %s, Total Delay: %.3fms", p.ID, (received-p.PingTimestamp)*1000)
		return
	}
	d := computePong(p.PingTimestamp, *p.ClientTimestamp, received, offset)
	s.out.Tagged("PONG", "ID: %s, Total Delay: %.3fms, Network Delay: %.3fms, Processing Delay: %.3fms",
		p.ID, d.Total, d.Network, d.Processing)
}

func (s *Session) handleTimeSync(r protocol.TimeSyncResponse, received float64) {
	s.mu.Lock()
	sent, ok := s.pendingSyncs[r.ID]
	if ok {
		delete(s.pendingSyncs, r.ID)
	}
	s.mu.Unlock()

	if !ok {
		s.out.Tagged("WARN", "Time sync response for unknown request: %s", r.ID)
		return
	}

	res := computeSync(sent, r.ClientReceiveTime, r.ClientSendTime, received)

	s.mu.Lock()
	s.offset = res.Offset
	s.synced = true
	s.mu.Unlock()

	s.out.Tagged("TIME SYNC", "ID: %s\n"+
		"  Server Send Time: %.6f\n"+
		"  Client Receive Time: %.6f\n"+
		"  Client Send Time: %.6f\n"+
		"  Server Receive Time: %.6f\n"+
		"  Theta (Offset): %.6fs\n"+
		"  Delta (RTT): %.6fs",
		r.ID, sent, r.ClientReceiveTime, r.ClientSendTime, received, res.Offset, res.RTT)
}

func (s *Session) handleMessage(r protocol.Response) {
	tag := "MESSAGE"
	if r.Status() == "error" {
		tag = "ERROR"
	}
	s.out.Tagged(tag, "Type: %s, Content: %s, Timestamp: %.3f", r.Type, r.Content, r.Timestamp)
	if len(r.Data) > 0 {
		if data, err := json.Marshal(r.Data); err == nil {
			s.out.Faint("  %s\n", data)
		}
	}
}
