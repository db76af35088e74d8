package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Client-side failure modes. Callers treat all of them as "no engine
// candidates this call"; none are fatal to the input session.
var (
	ErrNotConnected = errors.New("not connected to engine")
	ErrCooldown     = errors.New("engine reconnect cooldown active")
)

// ClientConfig configures the IPC client.
type ClientConfig struct {
	// SocketPath is the engine's local stream socket (unix domain socket;
	// on Windows hosts the front-end supplies a named pipe path here).
	SocketPath string

	// CallTimeout bounds a single request/response exchange. A crashed
	// engine must not hang the caller's keystroke indefinitely.
	CallTimeout time.Duration

	// ReconnectCooldown is the minimum wait between failed dial attempts,
	// so a dead engine process cannot stall every keystroke with a fresh
	// connection timeout.
	ReconnectCooldown time.Duration
}

// DefaultClientConfig returns the standard client settings.
func DefaultClientConfig(socketPath string) ClientConfig {
	return ClientConfig{
		SocketPath:        socketPath,
		CallTimeout:       5 * time.Second,
		ReconnectCooldown: 10 * time.Second,
	}
}

// Client is the IPC Converter implementation. Calls are synchronous
// request/response; a single mutex serializes use of the connection, which
// matches the bridge's one-call-at-a-time discipline.
type Client struct {
	mu        sync.Mutex
	conn      net.Conn
	cfg       ClientConfig
	log       *slog.Logger
	nextReqID atomic.Uint32
	lastFail  atomic.Int64 // unix seconds of last failed dial
}

// NewClient creates a client. It does not dial; the first call connects
// lazily so the bridge can initialize before the engine process is up.
func NewClient(cfg ClientConfig, log *slog.Logger) *Client {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 5 * time.Second
	}
	if cfg.ReconnectCooldown <= 0 {
		cfg.ReconnectCooldown = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{cfg: cfg, log: log}
}

// ensureConn dials if needed, honoring the reconnect cooldown.
func (c *Client) ensureConn() error {
	if c.conn != nil {
		return nil
	}
	since := time.Now().Unix() - c.lastFail.Load()
	if since >= 0 && time.Duration(since)*time.Second < c.cfg.ReconnectCooldown {
		return ErrCooldown
	}
	conn, err := net.DialTimeout("unix", c.cfg.SocketPath, c.cfg.CallTimeout)
	if err != nil {
		c.lastFail.Store(time.Now().Unix())
		c.log.Warn("engine dial failed", "path", c.cfg.SocketPath, "error", err)
		return fmt.Errorf("dial engine: %w", err)
	}
	c.log.Info("connected to engine", "path", c.cfg.SocketPath)
	c.conn = conn
	return nil
}

// roundTrip sends one request and reads its response. Any transport error
// drops the connection so the next call re-dials.
func (c *Client) roundTrip(ctx context.Context, t msgType, payload []byte) (*message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConn(); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.cfg.CallTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		c.drop()
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	reqID := c.nextReqID.Add(1)
	if err := newMessage(t, reqID, payload).write(c.conn); err != nil {
		c.drop()
		return nil, fmt.Errorf("write request: %w", err)
	}

	resp, err := readMessage(c.conn)
	if err != nil {
		c.drop()
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.Header.RequestID != reqID {
		c.drop()
		return nil, fmt.Errorf("response id %d for request %d", resp.Header.RequestID, reqID)
	}
	if resp.Header.Type == msgError {
		var ep errorPayload
		if err := json.Unmarshal(resp.Payload, &ep); err != nil {
			return nil, errors.New("engine error (undecodable payload)")
		}
		return nil, fmt.Errorf("engine: %s", ep.Message)
	}
	return resp, nil
}

// drop discards the connection; the next call re-dials.
func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Convert implements Converter.
func (c *Client) Convert(ctx context.Context, q Query) (*Result, error) {
	payload, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	resp, err := c.roundTrip(ctx, msgConvert, payload)
	if err != nil {
		return nil, err
	}
	var res Result
	if err := json.Unmarshal(resp.Payload, &res); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &res, nil
}

// Learn implements Converter.
func (c *Client) Learn(ctx context.Context, index int) error {
	payload, err := json.Marshal(learnRequest{Index: index})
	if err != nil {
		return fmt.Errorf("encode learn request: %w", err)
	}
	_, err = c.roundTrip(ctx, msgLearn, payload)
	return err
}

// ResetMemory implements Converter.
func (c *Client) ResetMemory(ctx context.Context) error {
	_, err := c.roundTrip(ctx, msgResetMemory, nil)
	return err
}

// EndSession implements Converter.
func (c *Client) EndSession(ctx context.Context) error {
	_, err := c.roundTrip(ctx, msgEndSession, nil)
	return err
}

// Close implements Converter.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drop()
	return nil
}
