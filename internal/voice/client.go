package voice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"onlevel/internal/session"
)

// ErrPermissionDenied is returned when the agent refuses the credentials.
var ErrPermissionDenied = errors.New("voice agent permission denied")

// Client talks to the voice agent over a websocket. One Client runs at most
// one call at a time.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *log.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	stopping bool
	handlers map[int]func(session.Event)
	nextID   int

	writeMu sync.Mutex
}

// NewClient creates a client for the configured agent endpoint.
func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	timeout := cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	return &Client{
		cfg:      cfg,
		dialer:   &websocket.Dialer{HandshakeTimeout: timeout, Proxy: http.ProxyFromEnvironment},
		logger:   logger,
		handlers: make(map[int]func(session.Event)),
	}
}

// Subscribe registers h for every event of the current and later calls.
func (c *Client) Subscribe(h func(session.Event)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = h
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers, id)
	}
}

// Start dials the agent and asks it to run target with params.
func (c *Client) Start(ctx context.Context, target string, params session.StartParams) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return errors.New("voice start: call already running")
	}
	c.mu.Unlock()

	header := http.Header{}
	if c.cfg.APIKey != "" {
		header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("voice start: %w: %s", ErrPermissionDenied, resp.Status)
		}
		return fmt.Errorf("voice start: dial: %w", err)
	}

	msg := startMessage{
		Type:      typeStart,
		Target:    target,
		Overrides: overrides{VariableValues: params.VariableValues},
	}
	if err := conn.WriteJSON(msg); err != nil {
		_ = conn.Close()
		return fmt.Errorf("voice start: send start: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.stopping = false
	c.mu.Unlock()

	c.logger.Printf("[Voice] call requested (target %s)", target)
	go c.readLoop(conn)
	return nil
}

// Stop asks the agent to end the call and closes the connection.
func (c *Client) Stop() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.stopping = true
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	err := conn.WriteJSON(controlMessage{Type: typeStop})
	if err == nil {
		err = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
	}
	c.writeMu.Unlock()

	if closeErr := conn.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("voice stop: %w", err)
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	started, ended := false, false
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			stopping := c.stopping || c.conn != conn
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()

			if ended {
				return
			}
			normal := websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
			if !stopping && (!started || !normal) {
				c.emit(session.Event{Kind: session.EventError, Err: fmt.Errorf("voice agent connection: %w", err)})
			}
			if started {
				c.emit(session.Event{Kind: session.EventCallEnded})
			}
			return
		}

		ev, ok, err := decodeEvent(raw)
		if err != nil {
			c.logger.Printf("[Voice] %v", err)
			continue
		}
		if !ok {
			continue
		}

		switch ev.Kind {
		case session.EventCallStarted:
			started = true
		case session.EventCallEnded:
			ended = true
		}
		c.emit(ev)

		if ended {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
	}
}

func (c *Client) emit(ev session.Event) {
	c.mu.Lock()
	handlers := make([]func(session.Event), 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}
