// Package peer is the client side of the relay connection.
package peer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/hexfront/engine/internal/channel"
	"github.com/hexfront/engine/internal/config"
	"github.com/hexfront/engine/internal/queue"
	"github.com/hexfront/engine/pkg/streaming"
)

// ErrClosed is returned once the connection is closed or lost. There is no reconnect.
var ErrClosed = errors.New("peer connection closed")

const (
	defaultSendBuffer = 256
	inboundSize       = 1024
	inboundRetry      = time.Millisecond
)

// Config holds connection settings
type Config struct {
	URL          string
	DialTimeout  time.Duration
	SendBuffer   int
	WriteTimeout time.Duration
}

// FromConfig converts loaded settings
func FromConfig(c config.PeerConfig) Config {
	return Config{
		URL:          c.ServerURL,
		DialTimeout:  c.DialTimeout,
		SendBuffer:   c.SendBuffer,
		WriteTimeout: c.WriteTimeout,
	}
}

// Conn manages a relay connection with a single write goroutine.
type Conn struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	conn   *ws.Conn
	sendCh chan []byte
	done   chan struct{}
	closed bool
	err    error

	inbound channel.Channel[streaming.Envelope]
	backlog *queue.Queue[streaming.Envelope]
}

// Dial connects to the relay and starts the read and write loops.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (*Conn, error) {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaultSendBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	conn, _, err := ws.DefaultDialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	c := &Conn{
		cfg:     cfg,
		logger:  logger,
		conn:    conn,
		sendCh:  make(chan []byte, cfg.SendBuffer),
		done:    make(chan struct{}),
		inbound: channel.New[streaming.Envelope](inboundSize),
		backlog: queue.New[streaming.Envelope](),
	}
	go c.writeLoop()
	go c.readLoop()
	return c, nil
}

// Send encodes a message and queues it for the writer. It fails fast when the queue is full.
func (c *Conn) Send(typ string, payload any) error {
	data, err := streaming.Encode(typ, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.sendCh <- data:
		return nil
	default:
		return fmt.Errorf("send queue full, dropping %s", typ)
	}
}

// Inbound yields decoded envelopes in arrival order. It is closed when the connection ends.
func (c *Conn) Inbound() <-chan streaming.Envelope {
	return c.inbound.Receive()
}

// Await blocks until an envelope of type typ arrives. Envelopes of other types
// received meanwhile are kept for Backlog.
func (c *Conn) Await(typ string, timeout time.Duration) (streaming.Envelope, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case env, ok := <-c.inbound.Receive():
			if !ok {
				return streaming.Envelope{}, c.closeErr()
			}
			if env.Type == typ {
				return env, nil
			}
			c.backlog.Push(env)
		case <-timer.C:
			return streaming.Envelope{}, fmt.Errorf("timeout waiting for %s", typ)
		}
	}
}

// Backlog returns and clears the envelopes skipped by Await.
func (c *Conn) Backlog() []streaming.Envelope {
	return c.backlog.GetAndEmpty()
}

// Done is closed when the connection is closed or lost.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the reason the connection ended, nil while open or after a clean Close.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Conn) closeErr() error {
	if err := c.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return ErrClosed
}

func (c *Conn) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
				c.fail(fmt.Errorf("set write deadline: %w", err))
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
				c.fail(fmt.Errorf("write: %w", err))
				return
			}
		}
	}
}

// readLoop is the only sender on inbound and closes it on exit.
func (c *Conn) readLoop() {
	defer c.inbound.Close()
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.fail(fmt.Errorf("read: %w", err))
			}
			return
		}

		var env streaming.Envelope
		if err := json.Unmarshal(message, &env); err != nil || env.Type == "" {
			c.logger.Warn("Discarding malformed message", "bytes", len(message))
			continue
		}

		for !c.inbound.TrySend(env) {
			select {
			case <-c.done:
				return
			case <-time.After(inboundRetry):
			}
		}
	}
}

// fail records a connection loss and shuts the loops down.
func (c *Conn) fail(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.err = err
	close(c.done)
	c.mu.Unlock()

	c.logger.Error("Relay connection lost", "error", err)
	_ = c.conn.Close()
}

// Close sends a close frame and shuts down all goroutines.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	_ = c.conn.WriteControl(
		ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.conn.Close()
}
