package app

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"live-quiz-service/internal/domain"
)

// recorder is a Notifier that keeps every outbound intent.
type recorder struct {
	mu         sync.Mutex
	groups     map[string]map[string]bool
	broadcasts map[string][]domain.Message
	unicasts   map[string][]domain.Message
	closed     map[string]bool
}

func newRecorder() *recorder {
	return &recorder{
		groups:     make(map[string]map[string]bool),
		broadcasts: make(map[string][]domain.Message),
		unicasts:   make(map[string][]domain.Message),
		closed:     make(map[string]bool),
	}
}

func (r *recorder) Bind(code, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.groups[code] == nil {
		r.groups[code] = make(map[string]bool)
	}
	r.groups[code][connID] = true
}

func (r *recorder) Unbind(code, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups[code], connID)
}

func (r *recorder) Broadcast(code string, msg domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts[code] = append(r.broadcasts[code], msg)
}

func (r *recorder) Unicast(connID string, msg domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unicasts[connID] = append(r.unicasts[connID], msg)
}

func (r *recorder) Close(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed[code] = true
	delete(r.groups, code)
}

func (r *recorder) count(code, msgType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.broadcasts[code] {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

func (r *recorder) ofType(code, msgType string) []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.broadcasts[code] {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func (r *recorder) unicastsTo(connID string) []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Message(nil), r.unicasts[connID]...)
}

func (r *recorder) lastState(code string) domain.SessionState {
	msgs := r.ofType(code, domain.MsgGameUpdate)
	if len(msgs) == 0 {
		return domain.SessionState{}
	}
	return msgs[len(msgs)-1].Payload.(domain.SessionState)
}

type mapStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newMapStore() *mapStore {
	return &mapStore{sessions: make(map[string]*Session)}
}

func (m *mapStore) Insert(s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.Code()]; ok {
		return false
	}
	m.sessions[s.Code()] = s
	return true
}

func (m *mapStore) Get(code string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[code]
	return s, ok
}

func (m *mapStore) Delete(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, code)
}

func (m *mapStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

type staticBank struct{ bank domain.Bank }

func (b staticBank) GetBank(context.Context) (domain.Bank, error) { return b.bank, nil }

func testQuestions() []domain.Question {
	return []domain.Question{
		{Text: "2 + 2?", Options: []string{"3", "4", "5"}, CorrectOption: 1, Category: "math"},
		{Text: "Which is an operating system?", Options: []string{"Oracle", "Google", "Linux", "Excel"}, CorrectOption: 2, Category: "it"},
	}
}

type harness struct {
	t     *testing.T
	svc   *QuizService
	rec   *recorder
	clock *clockwork.FakeClock
	ctx   context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	rec := newRecorder()
	clock := clockwork.NewFakeClock()
	svc := NewQuizService(newMapStore(), staticBank{bank: domain.Bank{Questions: testQuestions()}}, rec, WithClock(clock))
	return &harness{t: t, svc: svc, rec: rec, clock: clock, ctx: context.Background()}
}

func (h *harness) create(hostID string) string {
	h.t.Helper()
	session, err := h.svc.CreateSession(h.ctx, hostID, "Host")
	require.NoError(h.t, err)
	return session.Code()
}

func (h *harness) do(connID string, cmd domain.Command) error {
	return h.svc.Handle(h.ctx, connID, cmd)
}

// openQuestion starts the question and waits until its ticker is registered.
func (h *harness) openQuestion(hostID, code string) {
	h.t.Helper()
	require.NoError(h.t, h.do(hostID, domain.StartQuestion{Code: code}))
	ctx, cancel := context.WithTimeout(h.ctx, 2*time.Second)
	defer cancel()
	require.NoError(h.t, h.clock.BlockUntilContext(ctx, 1))
}

// tick advances the clock one interval and waits for the resulting broadcast.
func (h *harness) tick(code string) {
	h.t.Helper()
	before := h.rec.count(code, domain.MsgTimerUpdate)
	h.clock.Advance(time.Second)
	require.Eventually(h.t, func() bool {
		return h.rec.count(code, domain.MsgTimerUpdate) == before+1
	}, 2*time.Second, time.Millisecond)
}

func (h *harness) runOutQuestion(code string) {
	h.t.Helper()
	settled := h.rec.count(code, domain.MsgQuestionEnded)
	for i := 0; i < DefaultRules().QuestionSeconds; i++ {
		h.tick(code)
	}
	require.Eventually(h.t, func() bool {
		return h.rec.count(code, domain.MsgQuestionEnded) == settled+1
	}, 2*time.Second, time.Millisecond)
}

func decodeCode(code string) int {
	n := 0
	for _, c := range code {
		n = n*len(codeAlphabet) + strings.IndexRune(codeAlphabet, c)
	}
	return n
}
