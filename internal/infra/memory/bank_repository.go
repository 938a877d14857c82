package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"live-quiz-service/internal/domain"
)

// BankLoader fetches the question bank from a backing store (file, database).
type BankLoader interface {
	LoadBank(ctx context.Context) (domain.Bank, error)
}

// BankRepository caches the bank with a TTL so sessions created in a burst
// share one load.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu      sync.RWMutex
	entry   domain.Bank
	expires time.Time
	loaded  bool
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context) (domain.Bank, error) {
	if bank, ok := r.cached(r.clock()); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do("bank", func() (interface{}, error) {
		now := r.clock()
		if bank, ok := r.cached(now); ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(ctx)
		if err != nil {
			return domain.Bank{}, err
		}
		if err := bank.Validate(); err != nil {
			return domain.Bank{}, err
		}

		r.mu.Lock()
		r.entry = bank
		r.expires = now.Add(r.ttlWithJitter())
		r.loaded = true
		r.mu.Unlock()
		return bank, nil
	})
	if err != nil {
		return domain.Bank{}, err
	}
	return result.(domain.Bank), nil
}

func (r *BankRepository) cached(now time.Time) (domain.Bank, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.loaded && r.expires.After(now) {
		return r.entry, true
	}
	return domain.Bank{}, false
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticBankLoader serves a fixed bank.
type StaticBankLoader struct {
	bank domain.Bank
}

func NewStaticBankLoader(bank domain.Bank) *StaticBankLoader {
	return &StaticBankLoader{bank: bank}
}

func (l *StaticBankLoader) LoadBank(context.Context) (domain.Bank, error) {
	if len(l.bank.Questions) == 0 {
		return domain.Bank{}, domain.ErrBankNotFound
	}
	return l.bank, nil
}

// SampleBank is the built-in healthcare and IT question set used when no
// other bank source is configured.
func SampleBank() domain.Bank {
	return domain.Bank{Questions: []domain.Question{
		{
			Text: "HIPAA stands for:",
			Options: []string{
				"Health Insurance Portability and Accountability Act",
				"Health Information Privacy and Access Agreement",
				"Health Insurance Policy Administration Act",
				"Health Information Processing and Analysis Act",
			},
			CorrectOption: 0,
			Category:      "healthcare",
		},
		{
			Text: "What is the purpose of CPT codes?",
			Options: []string{
				"To identify medical diagnoses",
				"To describe medical procedures and services",
				"To record patient demographics",
				"To manage insurance claims only",
			},
			CorrectOption: 1,
			Category:      "healthcare",
		},
		{
			Text:          "Which of the following is hardware?",
			Options:       []string{"Microsoft Word", "Keyboard", "Windows 11", "Chrome browser"},
			CorrectOption: 1,
			Category:      "it",
		},
		{
			Text:          "Which of these is an operating system?",
			Options:       []string{"Oracle", "Google", "Linux", "Excel"},
			CorrectOption: 2,
			Category:      "it",
		},
	}}
}
