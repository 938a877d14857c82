package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"live-quiz-service/internal/domain"
)

// QuestionLoader reads the question bank from the questions table.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadBank(ctx context.Context) (domain.Bank, error) {
	rows, err := l.pool.Query(ctx, `SELECT text, options, correct_option, category FROM questions ORDER BY position`)
	if err != nil {
		return domain.Bank{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var bank domain.Bank
	for rows.Next() {
		var (
			q   domain.Question
			raw []byte
		)
		if err := rows.Scan(&q.Text, &raw, &q.CorrectOption, &q.Category); err != nil {
			return domain.Bank{}, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(raw, &q.Options); err != nil {
			return domain.Bank{}, fmt.Errorf("unmarshal options of %q: %w", q.Text, err)
		}
		bank.Questions = append(bank.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Bank{}, fmt.Errorf("load questions: %w", err)
	}
	if len(bank.Questions) == 0 {
		return domain.Bank{}, domain.ErrBankNotFound
	}
	return bank, nil
}
