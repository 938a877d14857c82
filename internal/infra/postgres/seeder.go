package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"live-quiz-service/internal/domain"
)

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	Position      int      `bun:"position,pk"`
	Text          string   `bun:"text,notnull"`
	Options       []string `bun:"options,type:jsonb,notnull"`
	CorrectOption int      `bun:"correct_option,notnull"`
	Category      string   `bun:"category,notnull"`
}

func toRows(bank domain.Bank) []questionRow {
	rows := make([]questionRow, 0, len(bank.Questions))
	for i, q := range bank.Questions {
		rows = append(rows, questionRow{
			Position:      i,
			Text:          q.Text,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
			Category:      q.Category,
		})
	}
	return rows
}

// SeedBank replaces the stored bank with bank, keeping positions in order.
func SeedBank(ctx context.Context, db *bun.DB, bank domain.Bank) error {
	if err := bank.Validate(); err != nil {
		return err
	}
	rows := toRows(bank)

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&rows).
			On("CONFLICT (position) DO UPDATE").
			Set("text = EXCLUDED.text").
			Set("options = EXCLUDED.options").
			Set("correct_option = EXCLUDED.correct_option").
			Set("category = EXCLUDED.category").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert questions: %w", err)
		}

		_, err = tx.NewDelete().
			Model((*questionRow)(nil)).
			Where("position >= ?", len(rows)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("trim questions: %w", err)
		}
		return nil
	})
}
