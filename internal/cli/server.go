package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/config"
	"live-quiz-service/internal/event"
	"live-quiz-service/internal/infra/file"
	"live-quiz-service/internal/infra/memory"
	natssink "live-quiz-service/internal/infra/nats"
	pgloader "live-quiz-service/internal/infra/postgres"
	infraredis "live-quiz-service/internal/infra/redis"
	"live-quiz-service/internal/metrics"
	transport "live-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	loader, closeLoader, err := bankLoader(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLoader()

	bankTTL := config.Duration(cfg.Quiz.TTL, 10*time.Minute)
	var bankRepo app.BankRepository
	if redisClient != nil {
		bankRepo = infraredis.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		bankRepo = memory.NewBankRepository(loader, bankTTL)
	}
	bank, err := bankRepo.GetBank(ctx)
	if err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}
	log.Info().Int("questions", len(bank.Questions)).Msg("question bank loaded")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	bus := event.NewBus()
	defer bus.Stop()
	bus.SubscribeAll(m.Observe)
	if redisClient != nil && cfg.Events.RedisPrefix != "" {
		bus.SubscribeAll(infraredis.NewPublisher(redisClient, cfg.Events.RedisPrefix).Handle)
	}
	if cfg.Events.NatsURL != "" {
		nc, err := natssink.Connect(cfg.Events.NatsURL, "quiz-service")
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Drain()
		bus.SubscribeAll(natssink.NewPublisher(nc, cfg.Events.NatsSubjectPrefix).Handle)
	}

	var store app.SessionRepository
	var claims *infraredis.SessionStore
	if redisClient != nil {
		claims = infraredis.NewSessionStore(redisClient, instanceID(), config.Duration(cfg.Redis.TTL, 6*time.Hour))
		store = claims
	} else {
		store = memory.NewSessionStore()
	}

	hub := transport.NewHub()
	rules := app.Rules{
		QuestionSeconds:  cfg.Quiz.QuestionSeconds,
		TickInterval:     config.Duration(cfg.Quiz.TickInterval, time.Second),
		PointsPerCorrect: cfg.Quiz.PointsPerCorrect,
	}
	service := app.NewQuizService(store, bankRepo, hub,
		app.WithRules(rules),
		app.WithEvents(bus),
		app.WithMetrics(m),
	)

	wsCfg := transport.DefaultWSConfig()
	wsCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	wsHandler := transport.NewWSHandler(service, hub, m, wsCfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}).Handler(mux)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("starting quiz service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if claims != nil {
		g.Go(func() error { return claims.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Int("sessions", service.SessionCount()).Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Duration(cfg.Server.ShutdownGrace, 5*time.Second))
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// bankLoader picks the bank source: Postgres, then a YAML file, then the sample bank.
func bankLoader(ctx context.Context, cfg config.Config) (memory.BankLoader, func(), error) {
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Info().Msg("question bank source: postgres")
		return pgloader.NewQuestionLoader(pool), pool.Close, nil
	}
	if cfg.Quiz.BankFile != "" {
		log.Info().Str("path", cfg.Quiz.BankFile).Msg("question bank source: file")
		return file.NewBankLoader(cfg.Quiz.BankFile), func() {}, nil
	}
	log.Info().Msg("question bank source: built-in sample")
	return memory.NewStaticBankLoader(memory.SampleBank()), func() {}, nil
}

func instanceID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "quiz"
	}
	return host + "-" + uuid.NewString()[:8]
}
