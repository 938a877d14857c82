package domain

import "fmt"

// Question is a single multiple-choice question. Questions are immutable once loaded.
type Question struct {
	Text          string   `json:"text" yaml:"text"`
	Options       []string `json:"options" yaml:"options"`
	CorrectOption int      `json:"correctOption" yaml:"correct_option"`
	Category      string   `json:"category" yaml:"category"`
}

// Validate checks that the question can be asked and scored.
func (q Question) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidQuestion)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: %q has %d options, need at least 2", ErrInvalidQuestion, q.Text, len(q.Options))
	}
	if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
		return fmt.Errorf("%w: %q correct option %d out of range", ErrInvalidQuestion, q.Text, q.CorrectOption)
	}
	return nil
}

// Bank is the ordered question sequence shared read-only by every session.
type Bank struct {
	Questions []Question `json:"questions" yaml:"questions"`
}

// Validate rejects empty banks and malformed questions.
func (b Bank) Validate() error {
	if len(b.Questions) == 0 {
		return ErrEmptyBank
	}
	for i, q := range b.Questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	return nil
}

// Phase is the lifecycle phase of a quiz session. A game moves from lobby to
// ready, then alternates question_active, question_ended and ready until the
// last question ends in finished. Ready is the gap between questions: the next
// question is exposed but its answer window has not opened yet.
type Phase string

const (
	PhaseLobby          Phase = "lobby"
	PhaseReady          Phase = "ready"
	PhaseQuestionActive Phase = "question_active"
	PhaseQuestionEnded  Phase = "question_ended"
	PhaseFinished       Phase = "finished"
)

// Participant is a scored player in a session. The host is never a participant.
type Participant struct {
	ID    string
	Name  string
	Score int
}

// PlayerView is the public view of a participant.
type PlayerView struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Answered bool   `json:"answered"`
}

// QuestionView is the question as shown to clients. CorrectOption is only
// populated once the answer window for the question has closed.
type QuestionView struct {
	Index         int      `json:"index"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	Category      string   `json:"category"`
	CorrectOption *int     `json:"correctOption,omitempty"`
}

// SessionState is a full snapshot of a session, broadcast so clients can
// resynchronize without diffing.
type SessionState struct {
	Code             string        `json:"code"`
	Phase            Phase         `json:"phase"`
	CurrentIndex     int           `json:"currentIndex"`
	TotalQuestions   int           `json:"totalQuestions"`
	CurrentQuestion  *QuestionView `json:"currentQuestion,omitempty"`
	RemainingSeconds int           `json:"remainingSeconds"`
	Players          []PlayerView  `json:"players"`
	AnsweredCount    int           `json:"answeredCount"`
}

// Settlement is the outcome of scoring one question.
type Settlement struct {
	QuestionIndex int            `json:"questionIndex"`
	CorrectOption int            `json:"correctOption"`
	Awards        map[string]int `json:"awards"`
	Correct       []string       `json:"correct"`
}
