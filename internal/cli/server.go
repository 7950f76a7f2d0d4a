package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/45-baron/1-Jour-1-science/internal/app"
	"github.com/45-baron/1-Jour-1-science/internal/config"
	"github.com/45-baron/1-Jour-1-science/internal/infra/memory"
	pgstore "github.com/45-baron/1-Jour-1-science/internal/infra/postgres"
	redisinfra "github.com/45-baron/1-Jour-1-science/internal/infra/redis"
	transport "github.com/45-baron/1-Jour-1-science/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz competition server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	secret := cfg.Auth.Secret
	if secret == "" {
		log.Println("auth secret not configured, using insecure dev secret")
		secret = "dev-secret"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var (
		users        app.UserRepository
		competitions app.CompetitionRepository
		sessions     app.SessionRepository
		submissions  app.SubmissionRepository
	)
	if cfg.Postgres.URL != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		users = pgstore.NewUserRepository(db, pool)
		competitions = pgstore.NewCompetitionRepository(db)
		sessions = pgstore.NewSessionRepository(db)
		submissions = pgstore.NewSubmissionRepository(db)
	} else {
		log.Println("postgres not configured, using in-memory stores")
		users = memory.NewUserRepository()
		competitions = memory.NewCompetitionRepository()
		sessions = memory.NewSessionRepository()
		submissions = memory.NewSubmissionRepository()
	}

	userService := app.NewUserService(users)
	competitionService := app.NewCompetitionService(competitions, sessions, submissions, users, cfg.Server.BaseURL)

	var board transport.RankingProvider
	var rankingService *app.RankingService
	if redisClient != nil {
		cacheTTL := config.TTLDuration(cfg.Ranking.CacheTTL, 2*time.Minute)
		// The cache wraps the service and the service invalidates the
		// cache after each recompute.
		var cache *redisinfra.RankingCache
		rankingService = app.NewRankingService(users, submissions, invalidatorFunc(func(ctx context.Context) error {
			return cache.Invalidate(ctx)
		}))
		cache = redisinfra.NewRankingCache(redisClient, rankingService, cacheTTL)
		board = cache
	} else {
		rankingService = app.NewRankingService(users, submissions, nil)
		board = rankingService
	}

	gradingService := app.NewGradingService(submissions, sessions, users, rankingService)

	api := transport.NewAPI(userService, competitionService, gradingService, rankingService, board)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      api.Handler(secret),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz competition service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

type invalidatorFunc func(ctx context.Context) error

func (f invalidatorFunc) Invalidate(ctx context.Context) error { return f(ctx) }
