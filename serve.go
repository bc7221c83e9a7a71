package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"guessr/cache"
	"guessr/config"
	"guessr/handlers"
	"guessr/repository"
	"guessr/routes"
	"guessr/seed"
	"guessr/services"
)

const shutdownTimeout = 10 * time.Second

// appStore is everything the server needs from a repository.
type appStore interface {
	services.UserStore
	services.EventStore
	services.RoundStore
	services.LeaderboardStore
	seed.Store
}

type backend struct {
	store appStore
	cache cache.Store
	close func()
}

// openBackend connects the configured storage. The memory backend needs no
// external services.
func openBackend(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*backend, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn().Msg("using in-memory storage, data is lost on exit")
		return &backend{
			store: repository.NewMemoryStore(nil),
			cache: cache.NewMemoryStore(nil),
			close: func() {},
		}, nil
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	store := repository.NewGormStore(db)
	if err := store.Migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	redisClient := config.InitRedis(cfg)
	kv := cache.NewRedisStore(redisClient, "guessr:")
	if err := kv.Ping(ctx); err != nil {
		sqlDB.Close()
		redisClient.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &backend{
		store: store,
		cache: kv,
		close: func() {
			redisClient.Close()
			sqlDB.Close()
		},
	}, nil
}

func newServer(cfg *config.Config, b *backend, hub *services.Hub, logger zerolog.Logger) *http.Server {
	authService := services.NewAuthService(b.store, b.cache, cfg.JWTSecret, cfg.SessionTTL, nil, logger)
	gameService := services.NewGameService(services.GameDeps{
		Users:  b.store,
		Events: b.store,
		Rounds: b.store,
		Cache:  b.cache,
		Feed:   hub,
		Logger: logger,
	})
	leaderboardService := services.NewLeaderboardService(b.store, nil)

	router := routes.NewRouter(logger, cfg.AllowedOrigins, cfg.SecureCookies)
	routes.SetupRoutes(router,
		handlers.NewAuthHandler(authService, cfg.SecureCookies),
		handlers.NewGameHandler(gameService),
		handlers.NewLeaderboardHandler(leaderboardService),
		handlers.NewFeedHandler(hub, cfg.AllowedOrigins),
		authService,
	)

	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func runServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.close()

	if _, err := seed.Seed(ctx, b.store, cfg.SeedFile, logger); err != nil {
		return fmt.Errorf("seed events: %w", err)
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := services.NewHub(logger)
	go hub.Run(hubCtx)

	srv := newServer(cfg, b, hub, logger)
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("storage", cfg.Storage).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	stopHub()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newServeCmd(opts *cliOptions) *cobra.Command {
	var port, bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			if bind != "" {
				cfg.BindAddress = bind
			}

			logger := config.SetupLogger(cfg.LogLevel, cfg.LogFormat)
			if logger.GetLevel() > zerolog.DebugLevel {
				gin.SetMode(gin.ReleaseMode)
			}
			return runServer(cmd.Context(), cfg, logger)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&port, "port", "p", "", "port to listen on, overrides PORT (env: GUESSR_PORT)")
	fs.StringVarP(&bind, "bind", "b", "", "address to bind to, overrides BIND_ADDRESS (env: GUESSR_BIND)")

	return cmd
}

func newSeedCmd(_ *cliOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the event catalogue into an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.SeedFile
			}
			logger := config.SetupLogger(cfg.LogLevel, cfg.LogFormat)

			b, err := openBackend(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer b.close()

			n, err := seed.Seed(cmd.Context(), b.store, file, logger)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Events already present, nothing to do.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d events.\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalogue, defaults to SEED_FILE or the built-in one (env: GUESSR_FILE)")
	return cmd
}
