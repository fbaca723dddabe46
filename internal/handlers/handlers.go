// Package handlers binds inbound protocol messages to the engine.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hexfront/engine/internal/dispatcher"
	"github.com/hexfront/engine/internal/engine"
	"github.com/hexfront/engine/internal/parser"
	"github.com/hexfront/engine/pkg/core"
	"github.com/hexfront/engine/pkg/streaming"
)

// ErrDisconnected is returned by Serve when the inbound stream ends
var ErrDisconnected = errors.New("connection to relay lost")

// Presenter shows session events to the local player
type Presenter interface {
	Chat(from core.Side, text string)
	Sound(name string)
	Notice(msg string)
}

// LogPresenter writes session events to a logger
type LogPresenter struct {
	Logger *slog.Logger
}

func (p LogPresenter) Chat(from core.Side, text string) {
	p.Logger.Info("Chat", "from", string(from), "text", text)
}

func (p LogPresenter) Sound(name string) {
	p.Logger.Info("Sound", "name", name)
}

func (p LogPresenter) Notice(msg string) {
	p.Logger.Info(msg)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Engine    *engine.Engine
	Parser    *parser.Parser
	Sender    engine.Sender
	Presenter Presenter
	Logger    *slog.Logger
	// Seed is sent to the follower with the initial state
	Seed int64
}

// Service provides handler methods for processing protocol messages
type Service struct {
	deps Dependencies
	log  *slog.Logger
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Presenter == nil {
		deps.Presenter = LogPresenter{Logger: deps.Logger}
	}
	return &Service{
		deps: deps,
		log:  deps.Logger.With("component", "handlers"),
	}
}

// Register wires every protocol message type into d. Messages that touch game state run
// synchronously so that they apply in arrival order; chat and sound cues are buffered.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	d.Register(streaming.TypeAssignColor, s.handleAssignColor, dispatcher.Logged())
	d.Register(streaming.TypeRedPlayerConnected, s.handleRedConnected, dispatcher.Logged())
	d.Register(streaming.TypePlayerLeft, s.handlePlayerLeft, dispatcher.Logged())
	d.Register(streaming.TypeError, s.handleError, dispatcher.Logged())

	d.Register(streaming.TypeGameState, s.handleGameState, dispatcher.Logged())
	d.Register(streaming.TypeStateSync, s.handleStateSync, dispatcher.Logged())
	d.Register(streaming.TypeCombatResult, s.handleCombatResult, dispatcher.Logged())
	d.Register(streaming.TypeMoveOrder, s.handleMoveOrder, dispatcher.Logged())
	d.Register(streaming.TypeGameOver, s.handleGameOver, dispatcher.Logged())

	d.Register(streaming.TypeChatMessage, s.handleChat, dispatcher.Buffered(64), dispatcher.Logged())
	d.Register(streaming.TypePlaySound, s.handlePlaySound, dispatcher.Buffered(64), dispatcher.Logged())
}

// Serve dispatches the envelopes received before the engine started, then the live stream,
// until ctx is cancelled or inbound closes.
func (s *Service) Serve(ctx context.Context, d *dispatcher.Dispatcher, backlog []streaming.Envelope, inbound <-chan streaming.Envelope) error {
	for _, env := range backlog {
		s.dispatch(d, env)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-inbound:
			if !ok {
				s.deps.Engine.Abort("connection lost")
				return ErrDisconnected
			}
			s.dispatch(d, env)
		}
	}
}

func (s *Service) dispatch(d *dispatcher.Dispatcher, env streaming.Envelope) {
	if !d.HasHandler(env.Type) {
		s.log.Debug("Unhandled message type", "type", env.Type)
		return
	}
	// Logged handlers report their own failures
	_, _ = d.Dispatch(dispatcher.Event{Type: env.Type, Payload: env.Payload})
}

// Say sends a chat line to the other peer
func (s *Service) Say(text string) error {
	if s.deps.Sender == nil {
		return errors.New("no sender configured")
	}
	return s.deps.Sender.Send(streaming.TypeChatMessage, streaming.ChatPayload{
		From: s.deps.Engine.Side(),
		Text: text,
	})
}

func envelope(e dispatcher.Event) streaming.Envelope {
	return streaming.Envelope{Type: e.Type, Payload: e.Payload}
}

func (s *Service) handleAssignColor(e dispatcher.Event) (any, error) {
	side, err := s.deps.Parser.ParseAssignColor(envelope(e))
	if err != nil {
		return nil, err
	}
	if side != s.deps.Engine.Side() {
		return nil, fmt.Errorf("relay reassigned %s, engine runs %s", side, s.deps.Engine.Side())
	}
	return side, nil
}

func (s *Service) handleRedConnected(e dispatcher.Event) (any, error) {
	if !s.deps.Engine.Authority() {
		return nil, nil
	}
	s.deps.Presenter.Notice("Red player connected")
	return nil, s.deps.Engine.SendInitialState(s.deps.Seed)
}

func (s *Service) handlePlayerLeft(e dispatcher.Event) (any, error) {
	side, err := s.deps.Parser.ParsePlayerLeft(envelope(e))
	if err != nil {
		return nil, err
	}
	s.deps.Presenter.Notice(fmt.Sprintf("The %s player left the game", side))
	s.deps.Engine.Abort(fmt.Sprintf("%s player left", side))
	return side, nil
}

func (s *Service) handleError(e dispatcher.Event) (any, error) {
	msg, err := s.deps.Parser.ParseError(envelope(e))
	if err != nil {
		return nil, err
	}
	s.deps.Presenter.Notice("Relay error: " + msg)
	if msg == streaming.ErrGameFull {
		s.deps.Engine.Abort(msg)
	}
	return msg, nil
}

func (s *Service) handleGameState(e dispatcher.Event) (any, error) {
	if s.deps.Engine.Authority() {
		return nil, nil
	}
	p, err := s.deps.Parser.ParseGameState(envelope(e))
	if err != nil {
		return nil, err
	}
	if err := s.deps.Engine.LoadGameState(p.State); err != nil {
		return nil, err
	}
	s.deps.Presenter.Notice(fmt.Sprintf("Game state received: %dx%d map, %d units", p.State.Rows, p.State.Cols, len(p.State.Units)))
	return p.Seed, nil
}

func (s *Service) handleStateSync(e dispatcher.Event) (any, error) {
	if s.deps.Engine.Authority() {
		return false, nil
	}
	snap, err := s.deps.Parser.ParseStateSync(envelope(e))
	if err != nil {
		return nil, err
	}
	return s.deps.Engine.ApplySnapshot(snap)
}

func (s *Service) handleCombatResult(e dispatcher.Event) (any, error) {
	if s.deps.Engine.Authority() {
		return nil, nil
	}
	p, err := s.deps.Parser.ParseCombatResult(envelope(e))
	if err != nil {
		return nil, err
	}
	return nil, s.deps.Engine.ApplyCombatResult(p)
}

func (s *Service) handleMoveOrder(e dispatcher.Event) (any, error) {
	p, err := s.deps.Parser.ParseMoveOrder(envelope(e))
	if err != nil {
		return nil, err
	}
	return nil, s.deps.Engine.RemoteOrder(p.UnitID, p.Target())
}

func (s *Service) handleGameOver(e dispatcher.Event) (any, error) {
	winner, err := s.deps.Parser.ParseGameOver(envelope(e))
	if err != nil {
		return nil, err
	}
	if s.deps.Engine.Authority() {
		return winner, nil
	}
	s.deps.Engine.EndGame(winner)
	s.deps.Presenter.Notice(fmt.Sprintf("Game over: %s wins", winner))
	return winner, nil
}

func (s *Service) handleChat(e dispatcher.Event) (any, error) {
	p, err := s.deps.Parser.ParseChat(envelope(e))
	if err != nil {
		return nil, err
	}
	s.deps.Presenter.Chat(p.From, p.Text)
	return nil, nil
}

func (s *Service) handlePlaySound(e dispatcher.Event) (any, error) {
	name, err := s.deps.Parser.ParsePlaySound(envelope(e))
	if err != nil {
		return nil, err
	}
	s.deps.Presenter.Sound(name)
	return nil, nil
}
