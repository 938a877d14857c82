package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"live-quiz-service/internal/app"
)

// releaseScript deletes a claim only while owner still holds it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the owner's claim, or re-takes it when it expired.
// It returns 0 when another owner holds the code.
var refreshScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
if not current then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
	return 1
end
return 0
`)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions live in a local map; Redis holds a claim per code so instances
// sharing one Redis never hand out the same code. Run keeps the claims of
// live sessions from expiring.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	owner    string
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

// NewSessionStore claims codes as owner for ttl.
func NewSessionStore(client *redis.Client, owner string, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		owner:    owner,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Insert(session *app.Session) bool {
	code := session.Code()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[code]; ok {
		return false
	}

	claimed, err := s.client.SetNX(context.Background(), Key(code), s.owner, s.ttl).Result()
	if err != nil {
		// Redis down: fall back to local uniqueness only.
		log.Warn().Err(err).Str("code", code).Msg("claim session code")
	} else if !claimed {
		return false
	}

	s.sessions[code] = session
	return true
}

func (s *SessionStore) Get(code string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[code]
	return session, ok
}

func (s *SessionStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[code]; !ok {
		return
	}
	delete(s.sessions, code)
	if err := releaseScript.Run(context.Background(), s.client, []string{Key(code)}, s.owner).Err(); err != nil {
		log.Warn().Err(err).Str("code", code).Msg("release session code")
	}
}

// Run refreshes every claim at a third of the ttl until ctx is done.
func (s *SessionStore) Run(ctx context.Context) error {
	if s.ttl <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(s.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Refresh extends the claim of every local session. A code whose claim was
// taken by another owner is logged and kept locally.
func (s *SessionStore) Refresh(ctx context.Context) {
	s.mu.RLock()
	codes := make([]string, 0, len(s.sessions))
	for code := range s.sessions {
		codes = append(codes, code)
	}
	s.mu.RUnlock()

	for _, code := range codes {
		held, err := refreshScript.Run(ctx, s.client, []string{Key(code)}, s.owner, s.ttl.Milliseconds()).Int()
		if err != nil {
			log.Warn().Err(err).Str("code", code).Msg("refresh session code")
			continue
		}
		if held == 0 {
			log.Warn().Str("code", code).Str("owner", s.owner).Msg("session code claimed by another owner")
		}
	}
}

func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Key is the Redis key claiming a session code.
func Key(code string) string {
	return "quiz:session:" + code
}
