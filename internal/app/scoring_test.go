package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"live-quiz-service/internal/domain"
)

func TestSettle(t *testing.T) {
	q := domain.Question{Text: "q", Options: []string{"a", "b", "c"}, CorrectOption: 2}
	roster := []*domain.Participant{
		{ID: "1", Name: "Alice", Score: 5},
		{ID: "2", Name: "Bob"},
		{ID: "3", Name: "Carol"},
	}
	answers := map[string]int{"Alice": 2, "Bob": 1, "Ghost": 2}

	result := settle(q, 3, roster, answers, 10)

	require.Equal(t, 3, result.QuestionIndex)
	require.Equal(t, 2, result.CorrectOption)
	require.Equal(t, map[string]int{"Alice": 10, "Bob": 0, "Carol": 0}, result.Awards)
	require.Equal(t, []string{"Alice"}, result.Correct)
	require.Equal(t, 15, roster[0].Score)
	require.Equal(t, 0, roster[1].Score)
	require.Equal(t, 0, roster[2].Score)
}

func TestSettleWithoutAnswers(t *testing.T) {
	roster := []*domain.Participant{{ID: "1", Name: "Alice"}}

	result := settle(domain.Question{Options: []string{"a", "b"}}, 0, roster, map[string]int{}, 10)

	require.Empty(t, result.Correct)
	require.Equal(t, map[string]int{"Alice": 0}, result.Awards)
}

func TestRecordAnswerReplaces(t *testing.T) {
	answers := map[string]int{}

	require.False(t, recordAnswer(answers, "Alice", 0))
	require.True(t, recordAnswer(answers, "Alice", 3))
	require.Equal(t, map[string]int{"Alice": 3}, answers)
}
