package file

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"live-quiz-service/internal/domain"
)

// BankLoader reads a YAML question bank from disk on every load.
type BankLoader struct {
	path string
}

func NewBankLoader(path string) *BankLoader {
	return &BankLoader{path: path}
}

func (l *BankLoader) LoadBank(_ context.Context) (domain.Bank, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Bank{}, fmt.Errorf("%w: %s", domain.ErrBankNotFound, l.path)
		}
		return domain.Bank{}, fmt.Errorf("read bank file: %w", err)
	}
	return Decode(data)
}

// Decode parses and validates a YAML bank document.
func Decode(data []byte) (domain.Bank, error) {
	var bank domain.Bank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return domain.Bank{}, fmt.Errorf("parse bank file: %w", err)
	}
	if err := bank.Validate(); err != nil {
		return domain.Bank{}, err
	}
	return bank, nil
}
