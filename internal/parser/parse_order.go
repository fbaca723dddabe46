package parser

import (
	"fmt"

	"github.com/hexfront/engine/pkg/streaming"
)

// ParseMoveOrder decodes a move order and checks the target against the grid
func (p *Parser) ParseMoveOrder(env streaming.Envelope) (streaming.MoveOrderPayload, error) {
	order, err := decode[streaming.MoveOrderPayload](env, streaming.TypeMoveOrder)
	if err != nil {
		return order, err
	}
	if order.UnitID < 0 {
		return order, fmt.Errorf("%w: negative unit id %d", ErrInvalidPayload, order.UnitID)
	}
	if err := p.checkHex(order.Target()); err != nil {
		return order, err
	}
	return order, nil
}
