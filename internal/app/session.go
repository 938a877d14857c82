package app

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/event"
	"live-quiz-service/internal/metrics"
)

// Rules are the per-process game constants.
type Rules struct {
	QuestionSeconds  int
	TickInterval     time.Duration
	PointsPerCorrect int
}

// DefaultRules are the classic 20 second questions worth 10 points.
func DefaultRules() Rules {
	return Rules{
		QuestionSeconds:  20,
		TickInterval:     time.Second,
		PointsPerCorrect: 10,
	}
}

// sessionEnv is what a session needs from its surroundings.
type sessionEnv struct {
	rules   Rules
	clock   clockwork.Clock
	notify  Notifier
	events  Publisher
	metrics *metrics.Metrics
}

// Session is one quiz instance. Every mutation happens under mu, including
// countdown ticks, so operations apply in the order they acquire the lock.
// Outbound messages are emitted while holding mu to keep that order on the wire.
type Session struct {
	code     string
	hostID   string
	hostName string
	env      *sessionEnv

	mu        sync.Mutex
	roster    []*domain.Participant
	questions []domain.Question
	index     int
	phase     domain.Phase
	remaining int
	answers   map[string]int
	countdown *countdown
	closed    bool
}

func newSession(code, hostID, hostName string, questions []domain.Question, env *sessionEnv) *Session {
	return &Session{
		code:      code,
		hostID:    hostID,
		hostName:  hostName,
		env:       env,
		questions: questions,
		index:     -1,
		phase:     domain.PhaseLobby,
		answers:   make(map[string]int),
	}
}

// Code returns the session code.
func (s *Session) Code() string { return s.code }

// HostID returns the connection id of the host.
func (s *Session) HostID() string { return s.hostID }

// Phase returns the current phase.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Snapshot returns the full public state of the session.
func (s *Session) Snapshot() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) join(connID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionNotFound
	}
	if s.phase != domain.PhaseLobby {
		return domain.ErrAlreadyStarted
	}
	for _, p := range s.roster {
		if p.Name == name {
			return domain.ErrNameTaken
		}
	}

	s.roster = append(s.roster, &domain.Participant{ID: connID, Name: name})
	s.env.notify.Bind(s.code, connID)

	s.broadcastLocked(domain.MsgPlayerJoined, s.playersLocked())
	s.broadcastStateLocked()
	return nil
}

func (s *Session) start(actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorizeLocked(actorID); err != nil {
		return err
	}
	if s.phase != domain.PhaseLobby {
		return domain.ErrInvalidPhase
	}
	if len(s.questions) == 0 {
		return domain.ErrEmptyBank
	}

	s.index = 0
	s.phase = domain.PhaseReady

	state := s.snapshotLocked()
	s.broadcastLocked(domain.MsgGameStarted, state)
	s.broadcastLocked(domain.MsgGameUpdate, state)
	s.publish(domain.EventGameStarted{Code: s.code, Players: len(s.roster)})
	return nil
}

func (s *Session) startQuestion(actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorizeLocked(actorID); err != nil {
		return err
	}
	if s.phase != domain.PhaseReady {
		return domain.ErrInvalidPhase
	}

	s.answers = make(map[string]int)
	s.remaining = s.env.rules.QuestionSeconds
	s.phase = domain.PhaseQuestionActive
	s.countdown = startCountdown(s.env.clock, s.env.rules.TickInterval, s.tick)

	state := s.snapshotLocked()
	s.broadcastLocked(domain.MsgQuestionStarted, state)
	s.broadcastLocked(domain.MsgGameUpdate, state)
	return nil
}

// tick is the countdown callback. It returns false once the countdown must stop.
func (s *Session) tick(c *countdown) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.countdown != c || s.phase != domain.PhaseQuestionActive {
		return false
	}

	s.remaining--
	s.env.metrics.Tick()
	s.broadcastLocked(domain.MsgTimerUpdate, s.remaining)

	if s.remaining > 0 {
		return true
	}
	s.expireLocked()
	return false
}

// expireLocked closes the answer window and settles the question. The phase
// check in tick makes this run once per question.
func (s *Session) expireLocked() {
	s.stopCountdownLocked()
	s.phase = domain.PhaseQuestionEnded

	answered := len(s.answers)
	result := settle(s.questions[s.index], s.index, s.roster, s.answers, s.env.rules.PointsPerCorrect)

	state := s.snapshotLocked()
	s.broadcastLocked(domain.MsgQuestionEnded, domain.QuestionEndedPayload{Game: state, Settlement: result})
	s.broadcastLocked(domain.MsgGameUpdate, state)
	s.publish(domain.EventQuestionSettled{Code: s.code, Settlement: result, Answers: answered})

	log.Debug().
		Str("code", s.code).
		Int("question", s.index).
		Int("answers", answered).
		Strs("correct", result.Correct).
		Msg("question settled")
}

func (s *Session) submitAnswer(connID string, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionNotFound
	}
	if s.phase != domain.PhaseQuestionActive {
		return domain.ErrWindowClosed
	}
	p := s.participantLocked(connID)
	if p == nil {
		return domain.ErrNotParticipant
	}

	recordAnswer(s.answers, p.Name, option)
	s.env.notify.Unicast(s.hostID, domain.Message{
		Type:    domain.MsgPlayerAnswered,
		Payload: domain.PlayerAnsweredPayload{PlayerName: p.Name, Answer: option},
	})
	return nil
}

func (s *Session) advance(actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorizeLocked(actorID); err != nil {
		return err
	}
	if s.phase != domain.PhaseQuestionEnded {
		return domain.ErrInvalidPhase
	}

	s.index++
	if s.index >= len(s.questions) {
		s.finishLocked(false)
		return nil
	}

	s.phase = domain.PhaseReady
	state := s.snapshotLocked()
	s.broadcastLocked(domain.MsgNextQuestion, state)
	s.broadcastLocked(domain.MsgGameUpdate, state)
	return nil
}

func (s *Session) end(actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorizeLocked(actorID); err != nil {
		return err
	}
	if s.phase == domain.PhaseFinished {
		return domain.ErrInvalidPhase
	}
	s.finishLocked(true)
	return nil
}

// finishLocked moves to finished. A forced finish discards the open question unscored.
func (s *Session) finishLocked(forced bool) {
	s.stopCountdownLocked()
	s.phase = domain.PhaseFinished
	s.remaining = 0

	state := s.snapshotLocked()
	s.broadcastLocked(domain.MsgGameEnded, state)
	s.broadcastLocked(domain.MsgGameUpdate, state)
	s.publish(domain.EventGameFinished{Code: s.code, Players: state.Players, Forced: forced})
}

func (s *Session) reset(actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorizeLocked(actorID); err != nil {
		return err
	}

	s.stopCountdownLocked()
	s.phase = domain.PhaseLobby
	s.index = -1
	s.remaining = 0
	s.answers = make(map[string]int)
	for _, p := range s.roster {
		p.Score = 0
	}

	state := s.snapshotLocked()
	s.broadcastLocked(domain.MsgGameReset, state)
	s.broadcastLocked(domain.MsgGameUpdate, state)
	s.publish(domain.EventGameReset{Code: s.code})
	return nil
}

// leave removes a player. It reports true when connID is the host, in which
// case nothing is changed and the caller must tear the session down.
func (s *Session) leave(connID string) (isHost bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if connID == s.hostID {
		return true
	}

	for i, p := range s.roster {
		if p.ID != connID {
			continue
		}
		s.roster = append(s.roster[:i], s.roster[i+1:]...)
		delete(s.answers, p.Name)
		s.env.notify.Unbind(s.code, connID)

		s.broadcastLocked(domain.MsgPlayerLeft, s.playersLocked())
		s.broadcastStateLocked()
		break
	}
	return false
}

// close cancels the countdown, tells everyone the session is gone and makes
// every further operation fail with ErrSessionNotFound.
func (s *Session) close(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.stopCountdownLocked()
	s.closed = true

	s.broadcastLocked(domain.MsgHostDisconnected, nil)
	s.env.notify.Close(s.code)
	s.publish(domain.EventSessionClosed{Code: s.code, Reason: reason})
}

func (s *Session) authorizeLocked(actorID string) error {
	if s.closed {
		return domain.ErrSessionNotFound
	}
	if actorID != s.hostID {
		return domain.ErrUnauthorized
	}
	return nil
}

func (s *Session) stopCountdownLocked() {
	if s.countdown == nil {
		return
	}
	s.countdown.stop()
	s.countdown = nil
}

func (s *Session) participantLocked(connID string) *domain.Participant {
	for _, p := range s.roster {
		if p.ID == connID {
			return p
		}
	}
	return nil
}

func (s *Session) playersLocked() []domain.PlayerView {
	players := make([]domain.PlayerView, 0, len(s.roster))
	for _, p := range s.roster {
		_, answered := s.answers[p.Name]
		players = append(players, domain.PlayerView{
			Name:     p.Name,
			Score:    p.Score,
			Answered: answered && s.phase == domain.PhaseQuestionActive,
		})
	}
	return players
}

func (s *Session) snapshotLocked() domain.SessionState {
	state := domain.SessionState{
		Code:           s.code,
		Phase:          s.phase,
		CurrentIndex:   s.index,
		TotalQuestions: len(s.questions),
		Players:        s.playersLocked(),
	}
	if s.phase == domain.PhaseQuestionActive {
		state.RemainingSeconds = s.remaining
		state.AnsweredCount = len(s.answers)
	}
	if s.index >= 0 && s.index < len(s.questions) && s.phase != domain.PhaseFinished {
		q := s.questions[s.index]
		view := &domain.QuestionView{
			Index:    s.index,
			Text:     q.Text,
			Options:  append([]string(nil), q.Options...),
			Category: q.Category,
		}
		if s.phase == domain.PhaseQuestionEnded {
			correct := q.CorrectOption
			view.CorrectOption = &correct
		}
		state.CurrentQuestion = view
	}
	return state
}

func (s *Session) broadcastStateLocked() {
	s.broadcastLocked(domain.MsgGameUpdate, s.snapshotLocked())
}

func (s *Session) broadcastLocked(msgType string, payload any) {
	s.env.notify.Broadcast(s.code, domain.Message{Type: msgType, Payload: payload})
}

func (s *Session) publish(e event.Event) {
	if s.env.events == nil {
		return
	}
	s.env.events.Publish(context.Background(), e)
}
