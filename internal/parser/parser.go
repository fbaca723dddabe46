package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/hexfront/engine/pkg/core"
	"github.com/hexfront/engine/pkg/streaming"
)

// ErrInvalidPayload wraps every decode or validation failure
var ErrInvalidPayload = errors.New("invalid payload")

// Parser provides envelope -> typed payload conversion with validation.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger
	grid   atomic.Pointer[core.Grid]
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// SetGrid sets the map used for bounds checks. Before a grid is known hexes are not bounds-checked.
func (p *Parser) SetGrid(g *core.Grid) {
	p.grid.Store(g)
}

func (p *Parser) checkHex(h core.Hex) error {
	g := p.grid.Load()
	if g == nil || g.Contains(h) {
		return nil
	}
	return fmt.Errorf("%w: hex %s outside %dx%d grid", ErrInvalidPayload, h, g.Rows, g.Cols)
}

// decode unmarshals the payload of env into T after checking its type
func decode[T any](env streaming.Envelope, want string) (T, error) {
	var out T
	if env.Type != want {
		return out, fmt.Errorf("%w: expected %s, got %s", ErrInvalidPayload, want, env.Type)
	}
	if len(env.Payload) == 0 {
		return out, fmt.Errorf("%w: empty %s payload", ErrInvalidPayload, want)
	}
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return out, fmt.Errorf("%w: error unmarshalling %s: %v", ErrInvalidPayload, want, err)
	}
	return out, nil
}

func checkSide(s core.Side) error {
	if !s.Valid() {
		return fmt.Errorf("%w: unknown side %q", ErrInvalidPayload, string(s))
	}
	return nil
}
