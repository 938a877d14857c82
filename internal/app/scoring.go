package app

import "live-quiz-service/internal/domain"

// recordAnswer stores a submission for the open question. A later submission
// from the same player replaces the earlier one. Out-of-range options are kept
// as-is; they can never match the correct option.
func recordAnswer(answers map[string]int, name string, option int) (replaced bool) {
	_, replaced = answers[name]
	answers[name] = option
	return replaced
}

// settle scores one closed question. It must run exactly once per question;
// callers guarantee that through the question_active -> question_ended transition.
func settle(q domain.Question, index int, roster []*domain.Participant, answers map[string]int, points int) domain.Settlement {
	result := domain.Settlement{
		QuestionIndex: index,
		CorrectOption: q.CorrectOption,
		Awards:        make(map[string]int, len(roster)),
		Correct:       []string{},
	}
	for _, p := range roster {
		result.Awards[p.Name] = 0
		answer, ok := answers[p.Name]
		if !ok || answer != q.CorrectOption {
			continue
		}
		p.Score += points
		result.Awards[p.Name] = points
		result.Correct = append(result.Correct, p.Name)
	}
	return result
}
