// Package transport maintains the device's WebSocket link to the console.
// The link lives on its own goroutines and talks to the control loop only
// through channels, so the loop never blocks on the network.
package transport

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

// Defaults for Options.
const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultSendQueue        = 64
	DefaultInboundQueue     = 64
	DefaultMinBackoff       = 500 * time.Millisecond
	DefaultMaxBackoff       = 30 * time.Second
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	SendQueue        int
	InboundQueue     int
	MinBackoff       time.Duration
	MaxBackoff       time.Duration
}

// Status is a link state change.
type Status struct {
	Connected bool
	URL       string
	// Reason is set on disconnect.
	Reason string
}

// Client dials the console, reconnecting with exponential backoff until its
// context is cancelled.
type Client struct {
	opts    Options
	dialer  *websocket.Dialer
	inbound chan []byte
	status  chan Status

	mu     sync.Mutex
	sendCh chan []byte
}

// New creates a client. Nothing is dialled until Run.
func New(opts Options) *Client {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.SendQueue <= 0 {
		opts.SendQueue = DefaultSendQueue
	}
	if opts.InboundQueue <= 0 {
		opts.InboundQueue = DefaultInboundQueue
	}
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = DefaultMinBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}

	return &Client{
		opts:    opts,
		dialer:  &websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout},
		inbound: make(chan []byte, opts.InboundQueue),
		status:  make(chan Status, 8),
	}
}

// Inbound delivers text frames received from the console.
func (c *Client) Inbound() <-chan []byte {
	return c.inbound
}

// Status delivers connect and disconnect notifications.
func (c *Client) Status() <-chan Status {
	return c.status
}

// Connected reports whether a session is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCh != nil
}

// Send queues a text frame. It never blocks: it returns false when the link
// is down or the send queue is full.
func (c *Client) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendCh == nil {
		return false
	}
	select {
	case c.sendCh <- frame:
		return true
	default:
		return false
	}
}

// Run dials and serves sessions until ctx is cancelled. It always returns
// ctx.Err().
func (c *Client) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.opts.MinBackoff
	bo.MaxInterval = c.opts.MaxBackoff
	bo.MaxElapsedTime = 0
	bo.Reset()

	for {
		conn, _, err := c.dialer.DialContext(ctx, c.opts.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			wait := bo.NextBackOff()
			log.Printf("[WSc] Dial %s failed: %v (retrying in %s)", c.opts.URL, err, wait.Round(time.Millisecond))
			if !sleep(ctx, wait) {
				return ctx.Err()
			}
			continue
		}

		bo.Reset()
		log.Printf("[WSc] Connected to url: %s", c.opts.URL)
		if !c.notify(ctx, Status{Connected: true, URL: c.opts.URL}) {
			conn.Close()
			return ctx.Err()
		}

		err = c.serve(ctx, conn)
		reason := "closed"
		if err != nil {
			reason = err.Error()
		}
		log.Printf("[WSc] Disconnected: %s", reason)
		if !c.notify(ctx, Status{Connected: false, URL: c.opts.URL, Reason: reason}) {
			return ctx.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !sleep(ctx, bo.NextBackOff()) {
			return ctx.Err()
		}
	}
}

// serve pumps one session until the connection fails or ctx is cancelled.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	sendCh := make(chan []byte, c.opts.SendQueue)
	c.mu.Lock()
	c.sendCh = sendCh
	c.mu.Unlock()

	done := make(chan struct{})
	readErr := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			select {
			case c.inbound <- data:
			case <-done:
				return
			}
		}
	}()

	defer func() {
		c.mu.Lock()
		c.sendCh = nil
		c.mu.Unlock()
		close(done)
		conn.Close()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(time.Second)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown")
			_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
			return ctx.Err()
		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		case frame := <-sendCh:
			if err := conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
				return fmt.Errorf("set write deadline: %w", err)
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		}
	}
}

func (c *Client) notify(ctx context.Context, s Status) bool {
	select {
	case c.status <- s:
		return true
	case <-ctx.Done():
		return false
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d == backoff.Stop {
		return false
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
