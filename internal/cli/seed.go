package cli

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"live-quiz-service/internal/config"
	"live-quiz-service/internal/infra/file"
	"live-quiz-service/internal/infra/memory"
	"live-quiz-service/internal/infra/postgres"
)

// NewSeedCmd imports a YAML bank (or the built-in sample) into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var bankFile string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a question bank into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if bankFile == "" {
				bankFile = cfg.Quiz.BankFile
			}
			return runSeed(cmd.Context(), cfg, bankFile)
		},
	}
	cmd.Flags().StringVar(&bankFile, "file", "", "YAML bank to import (defaults to quiz.bank_file, then the sample bank)")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, bankFile string) error {
	bank := memory.SampleBank()
	if bankFile != "" {
		var err error
		if bank, err = file.NewBankLoader(bankFile).LoadBank(ctx); err != nil {
			return err
		}
	}

	if err := runMigrations(ctx, cfg); err != nil {
		return err
	}
	db, err := openBunDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.SeedBank(ctx, db, bank); err != nil {
		return err
	}
	log.Info().Int("questions", len(bank.Questions)).Str("source", bankSource(bankFile)).Msg("question bank seeded")
	return nil
}

func bankSource(path string) string {
	if path == "" {
		return "sample"
	}
	return path
}

