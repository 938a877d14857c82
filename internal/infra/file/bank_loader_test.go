package file

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"live-quiz-service/internal/domain"
)

func TestBankLoaderReadsYAML(t *testing.T) {
	bank, err := NewBankLoader(filepath.Join("testdata", "bank.yaml")).LoadBank(context.Background())
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if len(bank.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(bank.Questions))
	}
	q := bank.Questions[1]
	if q.Text != "Which of these is an operating system?" || q.CorrectOption != 2 || q.Category != "it" {
		t.Fatalf("unexpected question %+v", q)
	}
	if len(q.Options) != 4 || q.Options[2] != "Linux" {
		t.Fatalf("unexpected options %v", q.Options)
	}
}

func TestBankLoaderMissingFile(t *testing.T) {
	_, err := NewBankLoader(filepath.Join(t.TempDir(), "nope.yaml")).LoadBank(context.Background())
	if !errors.Is(err, domain.ErrBankNotFound) {
		t.Fatalf("expected bank not found, got %v", err)
	}
}

func TestDecodeRejectsBadBanks(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want error
	}{
		"empty": {
			doc:  "questions: []",
			want: domain.ErrEmptyBank,
		},
		"correct option out of range": {
			doc:  "questions:\n  - text: q\n    options: [a, b]\n    correct_option: 2\n",
			want: domain.ErrInvalidQuestion,
		},
		"single option": {
			doc:  "questions:\n  - text: q\n    options: [a]\n",
			want: domain.ErrInvalidQuestion,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(tc.doc))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDecodeRejectsMalformedYAML(t *testing.T) {
	if _, err := Decode([]byte("questions: [")); err == nil {
		t.Fatalf("expected parse error")
	}
}
