// Package relay is the stateless session server: it pairs two peers, assigns
// their sides and forwards every frame from one to the other.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/hexfront/engine/internal/config"
	"github.com/hexfront/engine/pkg/core"
	"github.com/hexfront/engine/pkg/streaming"
)

const (
	instrumentationName = "github.com/hexfront/engine/internal/relay"
	sendChSize          = 1024
	limiterTTL          = 10 * time.Minute
)

// Config holds relay settings
type Config struct {
	HandshakeRate   rate.Limit
	HandshakeBurst  int
	WriteTimeout    time.Duration
	ReadBufferSize  int
	WriteBufferSize int
}

// FromConfig converts loaded settings
func FromConfig(c config.RelayConfig) Config {
	return Config{
		HandshakeRate:   rate.Limit(c.HandshakeRate),
		HandshakeBurst:  c.HandshakeBurst,
		WriteTimeout:    c.WriteTimeout,
		ReadBufferSize:  c.ReadBufferSize,
		WriteBufferSize: c.WriteBufferSize,
	}
}

// Server holds at most two connections and forwards between them.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	upgrader ws.Upgrader

	mu      sync.Mutex
	blue    *client
	red     *client
	active  bool
	session uuid.UUID

	limMu    sync.Mutex
	limiters map[string]*visitor

	relayed  metric.Int64Counter
	rejected metric.Int64Counter
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewServer creates a relay with no connected peers
func NewServer(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.HandshakeBurst <= 0 {
		cfg.HandshakeBurst = 1
	}
	s := &Server{
		cfg:    cfg,
		logger: logger,
		upgrader: ws.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		limiters: make(map[string]*visitor),
	}

	m := otel.Meter(instrumentationName)
	var err error
	s.relayed, err = m.Int64Counter("relay.frames.relayed",
		metric.WithDescription("Frames forwarded between peers"))
	if err != nil {
		return nil, fmt.Errorf("creating relayed counter: %w", err)
	}
	s.rejected, err = m.Int64Counter("relay.connections.rejected",
		metric.WithDescription("Connections refused by rate limit or full session"))
	if err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}
	return s, nil
}

// Handler returns the HTTP routes: /ws for peers and /healthcheck.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.ServeWS)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Active reports whether both peers are connected and blue has not left.
func (s *Server) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Session returns the id of the current pairing, uuid.Nil when no peer is connected.
func (s *Server) Session() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// ServeWS upgrades the request and runs the connection until it closes.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	host := remoteHost(r)
	if !s.allow(host) {
		s.rejected.Add(r.Context(), 1, metric.WithAttributes(attribute.String("reason", "rate")))
		http.Error(w, "too many connection attempts", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Upgrade failed", "remote", host, "error", err)
		return
	}

	c := s.join(conn)
	if c == nil {
		s.rejected.Add(r.Context(), 1, metric.WithAttributes(attribute.String("reason", "full")))
		s.refuse(conn)
		return
	}

	go c.writeLoop(s.cfg.WriteTimeout, s.logger)
	s.readLoop(c)
	s.leave(c)
}

// join assigns the next free side and sends the session notices. nil means full.
func (s *Server) join(conn *ws.Conn) *client {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c *client
	switch {
	case s.blue == nil:
		c = newClient(core.Blue, conn)
		s.blue = c
		if s.red == nil {
			s.session = uuid.New()
		}
	case s.red == nil:
		c = newClient(core.Red, conn)
		s.red = c
	default:
		return nil
	}

	s.logger.Info("Peer connected", "side", c.side, "session", s.session)
	c.enqueue(mustEncode(streaming.TypeAssignColor, streaming.AssignColorPayload{Color: c.side}))

	if c.side == core.Red {
		s.active = true
		if s.blue != nil {
			s.blue.enqueue(mustEncode(streaming.TypeRedPlayerConnected, nil))
		}
		s.logger.Info("Session active", "session", s.session)
	}
	return c
}

func (s *Server) refuse(conn *ws.Conn) {
	s.logger.Info("Connection refused, session full", "session", s.Session())
	deadline := time.Now().Add(s.cfg.WriteTimeout)
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.WriteMessage(ws.TextMessage, mustEncode(streaming.TypeError, streaming.ErrorPayload{Message: streaming.ErrGameFull}))
	_ = conn.WriteControl(ws.CloseMessage, ws.FormatCloseMessage(ws.ClosePolicyViolation, streaming.ErrGameFull), deadline)
	_ = conn.Close()
}

func (s *Server) readLoop(c *client) {
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if !ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
				s.logger.Debug("Peer read ended", "side", c.side, "error", err)
			}
			return
		}

		var env streaming.Envelope
		if err := json.Unmarshal(frame, &env); err != nil || env.Type == "" {
			s.logger.Warn("Dropping malformed frame", "side", c.side, "bytes", len(frame))
			continue
		}

		other := s.other(c)
		if other == nil {
			s.logger.Debug("No peer to relay to", "side", c.side, "type", env.Type)
			continue
		}
		if !other.enqueue(frame) {
			s.logger.Warn("Peer send queue full, dropping frame", "to", other.side, "type", env.Type)
			continue
		}
		s.relayed.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("type", env.Type), attribute.String("from", string(c.side))))
	}
}

func (s *Server) other(c *client) *client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.side == core.Blue {
		return s.red
	}
	return s.blue
}

// leave frees the side and tells the remaining peer.
func (s *Server) leave(c *client) {
	c.close()

	s.mu.Lock()
	defer s.mu.Unlock()

	var other *client
	switch c.side {
	case core.Blue:
		if s.blue != c {
			return
		}
		s.blue = nil
		s.active = false
		other = s.red
	case core.Red:
		if s.red != c {
			return
		}
		s.red = nil
		other = s.blue
	}
	if other != nil {
		other.enqueue(mustEncode(streaming.TypePlayerLeft, streaming.PlayerLeftPayload{Army: c.side}))
	}
	if s.blue == nil && s.red == nil {
		s.active = false
		s.session = uuid.Nil
	}
	s.logger.Info("Peer disconnected", "side", c.side, "blue", s.blue != nil, "red", s.red != nil)
}

// Close disconnects both peers.
func (s *Server) Close() {
	s.mu.Lock()
	peers := []*client{s.blue, s.red}
	s.mu.Unlock()
	for _, c := range peers {
		if c != nil {
			_ = c.conn.Close()
		}
	}
}

func (s *Server) allow(host string) bool {
	if s.cfg.HandshakeRate <= 0 {
		return true
	}
	s.limMu.Lock()
	defer s.limMu.Unlock()

	now := time.Now()
	for h, v := range s.limiters {
		if now.Sub(v.lastSeen) > limiterTTL {
			delete(s.limiters, h)
		}
	}
	v, ok := s.limiters[host]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.cfg.HandshakeRate, s.cfg.HandshakeBurst)}
		s.limiters[host] = v
	}
	v.lastSeen = now
	return v.limiter.Allow()
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func mustEncode(t string, payload any) []byte {
	data, err := streaming.Encode(t, payload)
	if err != nil {
		panic(err)
	}
	return data
}
