package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// AlertsPath is the alert feed endpoint.
const AlertsPath = "/api/stream/alerts"

// Alert is one event from the live alert feed.
type Alert struct {
	ID        string    `json:"id"`
	Severity  string    `json:"severity"`
	Title     string    `json:"title"`
	SampleID  string    `json:"sample_id,omitempty"`
	AgentID   string    `json:"agent_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TokenStore supplies the bearer token attached to the dial request.
type TokenStore interface {
	Token() string
}

// Config configures a feed connection.
type Config struct {
	// BaseURL is the platform origin, http or https. The scheme is
	// rewritten to ws/wss for the dial.
	BaseURL string

	// Tokens supplies the session token. Optional; without it the dial
	// is unauthenticated and the server will refuse the upgrade.
	Tokens TokenStore

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer

	Logger *slog.Logger
}

// Conn is a live alert feed connection. Alerts arrive on Events until
// the connection fails or Close is called, after which Events is closed
// and Err reports why.
type Conn struct {
	ws     *websocket.Conn
	events chan Alert
	logger *slog.Logger

	mu     sync.Mutex
	err    error
	closed bool
}

// Dial connects to the alert feed and starts the read loop.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	wsURL, err := feedURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	header := http.Header{}
	if cfg.Tokens != nil {
		if token := cfg.Tokens.Token(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	ws, res, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if res != nil {
			return nil, fmt.Errorf("stream: dial %s: status %d: %w", AlertsPath, res.StatusCode, err)
		}
		return nil, fmt.Errorf("stream: dial %s: %w", AlertsPath, err)
	}

	c := &Conn{
		ws:     ws,
		events: make(chan Alert, 16),
		logger: logger,
	}
	go c.readLoop()
	return c, nil
}

// Events returns the alert channel. It is closed when the connection
// ends.
func (c *Conn) Events() <-chan Alert {
	return c.events
}

// Err returns the terminal error after Events closes, or nil for a
// clean shutdown.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close shuts the connection down. Safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	// Best effort: tell the server we are going away before tearing
	// down the socket.
	deadline := time.Now().Add(time.Second)
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return c.ws.Close()
}

func (c *Conn) readLoop() {
	defer close(c.events)
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			wasClosed := c.closed
			if !wasClosed {
				c.err = err
			}
			c.mu.Unlock()
			if !wasClosed && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("alert feed read failed", "error", err)
			}
			return
		}

		var alert Alert
		if err := json.Unmarshal(msg, &alert); err != nil {
			// A malformed frame is the server's bug, not a reason to
			// drop the feed.
			c.logger.Warn("discarding malformed alert frame", "error", err)
			continue
		}
		c.events <- alert
	}
}

// feedURL rewrites the platform origin into the feed's ws/wss URL.
func feedURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("stream: parse base URL: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("stream: unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + AlertsPath
	return u.String(), nil
}
