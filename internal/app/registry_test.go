package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"live-quiz-service/internal/domain"
)

func newTestRegistry(store SessionRepository) *Registry {
	return newRegistry(store, &sessionEnv{rules: DefaultRules(), notify: newRecorder()})
}

func TestEncodeCode(t *testing.T) {
	require.Equal(t, "AAAA", encodeCode(0))
	require.Equal(t, "9999", encodeCode(codeSpace-1))
	require.Equal(t, "AB12", encodeCode(decodeCode("AB12")))
}

func TestRegistryCodesAreDistinct(t *testing.T) {
	r := newTestRegistry(newMapStore())

	seen := make(map[string]bool)
	for i := 0; i < 2000; i++ {
		s, err := r.Create("host", "Host", testQuestions())
		require.NoError(t, err)
		require.Len(t, s.Code(), 4)
		require.False(t, seen[s.Code()], "code %s issued twice", s.Code())
		seen[s.Code()] = true
	}
	require.Equal(t, 2000, r.Count())
}

func TestRegistryRetriesOnCollision(t *testing.T) {
	r := newTestRegistry(newMapStore())
	draws := []int{decodeCode("AB12"), decodeCode("AB12"), decodeCode("AB12"), decodeCode("CD34")}
	r.draw = func() int {
		n := draws[0]
		if len(draws) > 1 {
			draws = draws[1:]
		}
		return n
	}

	first, err := r.Create("h1", "One", testQuestions())
	require.NoError(t, err)
	require.Equal(t, "AB12", first.Code())

	second, err := r.Create("h2", "Two", testQuestions())
	require.NoError(t, err)
	require.Equal(t, "CD34", second.Code())
}

func TestRegistryScansWhenRandomDrawsKeepColliding(t *testing.T) {
	r := newTestRegistry(newMapStore())
	r.draw = func() int { return 0 }

	first, err := r.Create("h1", "One", testQuestions())
	require.NoError(t, err)
	require.Equal(t, "AAAA", first.Code())

	// Every random draw now collides; the scan must find the next free code.
	second, err := r.Create("h2", "Two", testQuestions())
	require.NoError(t, err)
	require.Equal(t, "AAAB", second.Code())
}

type fullStore struct{ *mapStore }

func (fullStore) Insert(*Session) bool { return false }

func TestRegistryReportsExhaustedCodeSpace(t *testing.T) {
	r := newTestRegistry(fullStore{newMapStore()})

	_, err := r.Create("h1", "One", testQuestions())
	require.ErrorIs(t, err, domain.ErrCodeSpaceExhausted)
}

func TestRegistryLookupAndRemove(t *testing.T) {
	r := newTestRegistry(newMapStore())
	r.draw = func() int { return decodeCode("AB12") }

	s, err := r.Create("host", "Host", testQuestions())
	require.NoError(t, err)

	got, err := r.Get(" ab12 ")
	require.NoError(t, err)
	require.Same(t, s, got)

	r.Remove("AB12", "test")
	_, err = r.Get("AB12")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	// A removed session's code may be reused.
	again, err := r.Create("host2", "Host", testQuestions())
	require.NoError(t, err)
	require.Equal(t, "AB12", again.Code())
}

func TestRegistryCopiesQuestions(t *testing.T) {
	r := newTestRegistry(newMapStore())
	questions := testQuestions()

	s, err := r.Create("host", "Host", questions)
	require.NoError(t, err)

	questions[0] = domain.Question{Text: "changed", Options: []string{"a", "b"}}
	require.Equal(t, "2 + 2?", s.questions[0].Text)
}
