package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/auth"
	"live-quiz-service/internal/config"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
	"live-quiz-service/internal/infra/postgres"
	redisstore "live-quiz-service/internal/infra/redis"
	transport "live-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			if flags.port != "" {
				cfg.Server.Port = flags.port
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

func runServer(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("[Server] redis %s unreachable, code reservations fall back to this instance: %v", cfg.Redis.Addr, err)
		}
	}

	var (
		loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
		bridge app.PersistenceBridge
	)
	if cfg.Postgres.URL != "" {
		db := postgres.OpenDB(cfg.Postgres.URL)
		defer db.Close()
		if cfg.Postgres.AutoMigrate {
			if err := runMigrations(ctx, db); err != nil {
				return err
			}
		}
		bridge = postgres.NewPersistence(db)

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = postgres.NewQuizLoader(pool)
	} else {
		log.Printf("[Server] postgres not configured, serving sample quizzes and keeping results in memory")
		bridge = memory.NewPersistence()
	}

	var (
		quizRepo app.QuizRepository
		store    app.SessionRepository
	)
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, cfg.Quiz.TTL)
		sessions := redisstore.NewSessionStore(redisClient, cfg.Redis.TTL)
		go sessions.RunKeepAlive(ctx, cfg.Redis.KeepAliveInterval)
		store = sessions
	} else {
		quizRepo = memory.NewQuizRepository(loader, cfg.Quiz.TTL)
		store = memory.NewSessionStore()
	}

	service := app.NewQuizService(store, quizRepo, bridge, app.Options{
		IdleTimeout:          cfg.Session.IdleTimeout,
		LeaderboardTopN:      cfg.Session.LeaderboardTopN,
		SubscriberBuffer:     cfg.Session.SubscriberBuffer,
		PersistAttempts:      cfg.Session.PersistAttempts,
		PersistBackoff:       cfg.Session.PersistBackoff,
		PersistTimeout:       cfg.Session.PersistTimeout,
		PersistWorkers:       cfg.Session.PersistWorkers,
		AutoLeaderboardAfter: cfg.Session.AutoLeaderboardAfter,
	})
	go service.RunSweeper(ctx, cfg.Session.SweepInterval)

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if !verifier.Enabled() {
		log.Printf("[Server] auth.jwt_secret not set, trusting X-User-ID (development mode)")
	}
	router := transport.NewRouter(service, verifier, transport.RouterConfig{
		PublicURL:      cfg.Server.PublicURL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
		// The websocket upgrade clears these deadlines on hijacked conns.
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[Server] listening on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Println("[Server] shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes is served when no postgres quiz store is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"demo": {
			ID:    "demo",
			Title: "Warm-up",
			Questions: []domain.Question{
				{
					ID:                      "q1",
					Statement:               "What is 2 + 2?",
					Alternatives:            []string{"3", "4", "5"},
					CorrectAlternativeIndex: 1,
					TimeLimitSeconds:        20,
					PointValue:              100,
				},
				{
					ID:                      "q2",
					Statement:               "Which planet is closest to the sun?",
					Alternatives:            []string{"Venus", "Mercury", "Mars", "Earth"},
					CorrectAlternativeIndex: 1,
					TimeLimitSeconds:        30,
					PointValue:              100,
				},
			},
		},
	}
}
