package relay

import (
	"log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/hexfront/engine/pkg/core"
)

// client is one peer connection with a single writer goroutine.
type client struct {
	side core.Side
	conn *ws.Conn

	mu     sync.Mutex
	sendCh chan []byte
	done   chan struct{}
	closed bool
}

func newClient(side core.Side, conn *ws.Conn) *client {
	return &client{
		side:   side,
		conn:   conn,
		sendCh: make(chan []byte, sendChSize),
		done:   make(chan struct{}),
	}
}

// enqueue hands a frame to the writer. It never blocks.
func (c *client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.sendCh <- frame:
		return true
	default:
		return false
	}
}

func (c *client) writeLoop(timeout time.Duration, logger *slog.Logger) {
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				logger.Warn("SetWriteDeadline failed", "side", c.side, "error", err)
				_ = c.conn.Close()
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, frame); err != nil {
				logger.Warn("Write failed", "side", c.side, "error", err)
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	_ = c.conn.Close()
}
