package parser

import (
	"fmt"
	"strings"

	"github.com/hexfront/engine/pkg/core"
	"github.com/hexfront/engine/pkg/streaming"
)

// ParseAssignColor returns the side the relay assigned to this peer
func (p *Parser) ParseAssignColor(env streaming.Envelope) (core.Side, error) {
	payload, err := decode[streaming.AssignColorPayload](env, streaming.TypeAssignColor)
	if err != nil {
		return "", err
	}
	return payload.Color, checkSide(payload.Color)
}

// ParsePlayerLeft returns the side whose peer disconnected
func (p *Parser) ParsePlayerLeft(env streaming.Envelope) (core.Side, error) {
	payload, err := decode[streaming.PlayerLeftPayload](env, streaming.TypePlayerLeft)
	if err != nil {
		return "", err
	}
	return payload.Army, checkSide(payload.Army)
}

// ParseGameOver returns the winning side
func (p *Parser) ParseGameOver(env streaming.Envelope) (core.Side, error) {
	payload, err := decode[streaming.GameOverPayload](env, streaming.TypeGameOver)
	if err != nil {
		return "", err
	}
	return payload.Outcome, checkSide(payload.Outcome)
}

// ParseChat returns the chat payload with surrounding whitespace trimmed
func (p *Parser) ParseChat(env streaming.Envelope) (streaming.ChatPayload, error) {
	payload, err := decode[streaming.ChatPayload](env, streaming.TypeChatMessage)
	if err != nil {
		return payload, err
	}
	payload.Text = strings.TrimSpace(payload.Text)
	if payload.Text == "" {
		return payload, fmt.Errorf("%w: empty chat message", ErrInvalidPayload)
	}
	return payload, nil
}

// ParseError returns the relay error message
func (p *Parser) ParseError(env streaming.Envelope) (string, error) {
	payload, err := decode[streaming.ErrorPayload](env, streaming.TypeError)
	if err != nil {
		return "", err
	}
	return payload.Message, nil
}

// ParsePlaySound returns the cue to play; an empty payload means the trumpet
func (p *Parser) ParsePlaySound(env streaming.Envelope) (string, error) {
	if env.Type != streaming.TypePlaySound {
		return "", fmt.Errorf("%w: expected %s, got %s", ErrInvalidPayload, streaming.TypePlaySound, env.Type)
	}
	if len(env.Payload) == 0 {
		return streaming.SoundTrumpet, nil
	}
	payload, err := decode[streaming.PlaySoundPayload](env, streaming.TypePlaySound)
	if err != nil {
		return "", err
	}
	if payload.Sound == "" {
		return streaming.SoundTrumpet, nil
	}
	return payload.Sound, nil
}
