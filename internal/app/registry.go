package app

import (
	"fmt"
	"math/rand/v2"

	"live-quiz-service/internal/domain"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 4
	// codeSpace is len(codeAlphabet)^codeLength.
	codeSpace = 36 * 36 * 36 * 36

	randomCodeAttempts = 64
)

// SessionRepository stores live sessions by code.
type SessionRepository interface {
	// Insert stores the session unless its code is already taken.
	Insert(session *Session) bool
	Get(code string) (*Session, bool)
	Delete(code string)
	Count() int
}

// Registry allocates codes and owns the code -> session mapping.
type Registry struct {
	store SessionRepository
	env   *sessionEnv
	draw  func() int
}

func newRegistry(store SessionRepository, env *sessionEnv) *Registry {
	return &Registry{
		store: store,
		env:   env,
		draw:  func() int { return rand.IntN(codeSpace) },
	}
}

// Create registers a new lobby session with a code no live session uses.
// Random draws are tried first; after repeated collisions the whole code space
// is scanned from a random offset, so creation only fails when every code is live.
func (r *Registry) Create(hostID, hostName string, questions []domain.Question) (*Session, error) {
	// Copy so later bank reloads never reach an in-flight session.
	qs := append([]domain.Question(nil), questions...)

	for i := 0; i < randomCodeAttempts; i++ {
		session := newSession(encodeCode(r.draw()), hostID, hostName, qs, r.env)
		if r.store.Insert(session) {
			return session, nil
		}
	}

	offset := r.draw()
	for i := 0; i < codeSpace; i++ {
		session := newSession(encodeCode((offset+i)%codeSpace), hostID, hostName, qs, r.env)
		if r.store.Insert(session) {
			return session, nil
		}
	}
	return nil, domain.ErrCodeSpaceExhausted
}

// Get looks up a live session.
func (r *Registry) Get(code string) (*Session, error) {
	session, ok := r.store.Get(domain.NormalizeCode(code))
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, code)
	}
	return session, nil
}

// Remove tears the session down before deleting it, so no countdown tick can
// reach a session that is no longer registered.
func (r *Registry) Remove(code, reason string) {
	code = domain.NormalizeCode(code)
	session, ok := r.store.Get(code)
	if !ok {
		return
	}
	session.close(reason)
	r.store.Delete(code)
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	return r.store.Count()
}

func encodeCode(n int) string {
	var b [codeLength]byte
	for i := codeLength - 1; i >= 0; i-- {
		b[i] = codeAlphabet[n%len(codeAlphabet)]
		n /= len(codeAlphabet)
	}
	return string(b[:])
}
