package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/event"
	"live-quiz-service/internal/metrics"
)

// Notifier delivers outbound intents to connections. Implementations must not
// block and must not call back into the service: sessions invoke them while locked.
type Notifier interface {
	// Bind subscribes a connection to a session's broadcasts.
	Bind(code, connID string)
	Unbind(code, connID string)
	Broadcast(code string, msg domain.Message)
	Unicast(connID string, msg domain.Message)
	// Close forgets the session's subscriber group.
	Close(code string)
}

// Publisher receives session lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, e event.Event)
}

// BankRepository loads the question bank (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context) (domain.Bank, error)
}

// QuizService routes validated commands from connections to sessions.
type QuizService struct {
	registry *Registry
	bank     BankRepository
	notify   Notifier
	events   Publisher
	metrics  *metrics.Metrics

	mu      sync.Mutex
	members map[string]string // connection id -> session code
}

// Option configures a QuizService.
type Option func(*options)

type options struct {
	rules   Rules
	clock   clockwork.Clock
	events  Publisher
	metrics *metrics.Metrics
}

// WithRules replaces DefaultRules.
func WithRules(r Rules) Option { return func(o *options) { o.rules = r } }

// WithClock replaces the real clock, mainly for deterministic countdowns in tests.
func WithClock(c clockwork.Clock) Option { return func(o *options) { o.clock = c } }

// WithEvents publishes session lifecycle events to p.
func WithEvents(p Publisher) Option { return func(o *options) { o.events = p } }

// WithMetrics records command and session counters into m.
func WithMetrics(m *metrics.Metrics) Option { return func(o *options) { o.metrics = m } }

func NewQuizService(store SessionRepository, bank BankRepository, notify Notifier, opts ...Option) *QuizService {
	o := options{
		rules: DefaultRules(),
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	env := &sessionEnv{
		rules:   o.rules,
		clock:   o.clock,
		notify:  notify,
		events:  o.events,
		metrics: o.metrics,
	}
	return &QuizService{
		registry: newRegistry(store, env),
		bank:     bank,
		notify:   notify,
		events:   o.events,
		metrics:  o.metrics,
		members:  make(map[string]string),
	}
}

// Handle applies one inbound command from connID. Surfaced rejections are also
// sent back to the connection; silent ones are only logged.
func (s *QuizService) Handle(ctx context.Context, connID string, cmd domain.Command) error {
	err := cmd.Validate()
	if err == nil {
		err = s.dispatch(ctx, connID, cmd)
	}
	if err == nil {
		return nil
	}

	if domain.IsSilent(err) {
		s.metrics.CommandRejected(cmd.Name(), false)
		log.Debug().Err(err).Str("conn_id", connID).Str("command", cmd.Name()).Msg("command ignored")
		return err
	}

	s.metrics.CommandRejected(cmd.Name(), true)
	msgType := domain.MsgError
	if _, ok := cmd.(domain.JoinSession); ok {
		msgType = domain.MsgJoinError
	}
	s.notify.Unicast(connID, domain.Message{Type: msgType, Payload: domain.ErrorPayload{Message: rejectionMessage(err)}})
	return err
}

func (s *QuizService) dispatch(ctx context.Context, connID string, cmd domain.Command) error {
	switch c := cmd.(type) {
	case domain.CreateSession:
		_, err := s.CreateSession(ctx, connID, strings.TrimSpace(c.HostName))
		return err
	case domain.JoinSession:
		return s.Join(connID, c.Code, strings.TrimSpace(c.PlayerName))
	case domain.StartGame:
		return s.withSession(c.Code, func(ss *Session) error { return ss.start(connID) })
	case domain.StartQuestion:
		return s.withSession(c.Code, func(ss *Session) error { return ss.startQuestion(connID) })
	case domain.SubmitAnswer:
		return s.SubmitAnswer(connID, c.Code, c.Option)
	case domain.NextQuestion:
		return s.withSession(c.Code, func(ss *Session) error { return ss.advance(connID) })
	case domain.EndGame:
		return s.withSession(c.Code, func(ss *Session) error { return ss.end(connID) })
	case domain.ResetGame:
		return s.withSession(c.Code, func(ss *Session) error { return ss.reset(connID) })
	case domain.Disconnect:
		s.Disconnect(connID)
		return nil
	default:
		return fmt.Errorf("%w: %s", domain.ErrInvalidCommand, cmd.Name())
	}
}

// CreateSession creates a lobby hosted by connID and replies with its code.
func (s *QuizService) CreateSession(ctx context.Context, connID, hostName string) (*Session, error) {
	if s.inLiveSession(connID) {
		return nil, domain.ErrAlreadyInSession
	}

	bank, err := s.bank.GetBank(ctx)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}

	session, err := s.registry.Create(connID, hostName, bank.Questions)
	if err != nil {
		return nil, err
	}
	s.setMember(connID, session.Code())
	s.notify.Bind(session.Code(), connID)
	s.notify.Unicast(connID, domain.Message{
		Type:    domain.MsgGameCreated,
		Payload: domain.GameCreatedPayload{GameCode: session.Code(), Game: session.Snapshot()},
	})
	if s.events != nil {
		s.events.Publish(ctx, domain.EventSessionCreated{Code: session.Code(), HostName: hostName})
	}

	log.Info().Str("code", session.Code()).Str("host", hostName).Msg("game created")
	return session, nil
}

// Join adds connID as a player of the lobby with the given code.
func (s *QuizService) Join(connID, code, name string) error {
	if s.inLiveSession(connID) {
		return domain.ErrAlreadyInSession
	}
	session, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	if err := session.join(connID, name); err != nil {
		return err
	}
	s.setMember(connID, session.Code())

	log.Info().Str("code", session.Code()).Str("player", name).Msg("player joined")
	return nil
}

// SubmitAnswer records an answer for the open question of the session.
func (s *QuizService) SubmitAnswer(connID, code string, option int) error {
	session, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	if err := session.submitAnswer(connID, option); err != nil {
		s.metrics.AnswerRejected()
		return err
	}
	s.metrics.AnswerAccepted()
	return nil
}

// Disconnect removes connID from its session. A departing host tears the whole session down.
func (s *QuizService) Disconnect(connID string) {
	code := s.takeMember(connID)
	if code == "" {
		return
	}
	session, err := s.registry.Get(code)
	if err != nil {
		return
	}
	if !session.leave(connID) {
		log.Info().Str("code", code).Str("conn_id", connID).Msg("player left")
		return
	}

	s.registry.Remove(code, "host disconnected")
	s.dropMembers(code)
	log.Info().Str("code", code).Msg("host disconnected, game closed")
}

// Session returns the live session with the given code.
func (s *QuizService) Session(code string) (*Session, error) {
	return s.registry.Get(code)
}

// SessionCount returns the number of live sessions.
func (s *QuizService) SessionCount() int {
	return s.registry.Count()
}

func (s *QuizService) withSession(code string, op func(*Session) error) error {
	session, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	return op(session)
}

// inLiveSession reports whether connID still belongs to a registered session.
func (s *QuizService) inLiveSession(connID string) bool {
	s.mu.Lock()
	code := s.members[connID]
	s.mu.Unlock()
	if code == "" {
		return false
	}
	_, ok := s.registry.store.Get(code)
	return ok
}

func (s *QuizService) setMember(connID, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[connID] = code
}

func (s *QuizService) takeMember(connID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := s.members[connID]
	delete(s.members, connID)
	return code
}

func (s *QuizService) dropMembers(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for connID, c := range s.members {
		if c == code {
			delete(s.members, connID)
		}
	}
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return "Game not found"
	case errors.Is(err, domain.ErrAlreadyStarted):
		return "Game has already started"
	case errors.Is(err, domain.ErrNameTaken):
		return "That name is already taken"
	case errors.Is(err, domain.ErrAlreadyInSession):
		return "You are already in a game"
	case errors.Is(err, domain.ErrInvalidCommand):
		return err.Error()
	default:
		return "Something went wrong"
	}
}
