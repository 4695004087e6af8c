package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/srssieam/DreamDwell-server/auth"
	"github.com/srssieam/DreamDwell-server/config"
	"github.com/srssieam/DreamDwell-server/db"
	"github.com/srssieam/DreamDwell-server/fraud"
	"github.com/srssieam/DreamDwell-server/offer"
	"github.com/srssieam/DreamDwell-server/payment"
	"github.com/srssieam/DreamDwell-server/photo"
	"github.com/srssieam/DreamDwell-server/property"
	"github.com/srssieam/DreamDwell-server/ratelimit"
	"github.com/srssieam/DreamDwell-server/review"
	"github.com/srssieam/DreamDwell-server/wishlist"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "dreamdwell",
		Short:         "DreamDwell property marketplace API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before the environment")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if err := cfg.RequireServe(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, cfg.Logger(os.Stdout))
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if err := cfg.RequireDatabase(); err != nil {
				return err
			}
			return runMigrate(cmd.Context(), cfg, cfg.Logger(os.Stdout))
		},
	}

	root.RunE = serve.RunE
	root.AddCommand(serve, migrate)
	return root
}

func runMigrate(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("bootstrap database pool: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}
	logger.Info("schema applied")
	return nil
}

func runServe(parent context.Context, cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	slog.SetDefault(logger)

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("bootstrap database pool: %w", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}

	limiter, closeLimiter := newLimiter(ctx, cfg, logger)
	defer closeLimiter()

	var photos property.PhotoStore
	if cfg.MongoURI != "" {
		client, err := photo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		photos = photo.NewGridFSStore(client, cfg.MongoDB)
		logger.Info("listing photos enabled", slog.String("db", cfg.MongoDB))
	}

	var bridge payment.Bridge
	if cfg.StripeSecretKey != "" {
		bridge = payment.NewStripeBridge(cfg.StripeSecretKey)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set; payment intents disabled")
	}

	identities := auth.NewService(auth.NewRepository(pool), auth.NewSessions(cfg.AccessTokenSecret, cfg.SessionTTL), logger)
	listingRepo := property.NewRepository(pool)
	listings := property.NewService(listingRepo, listingRepo, photos, logger)

	server := &Server{
		identities:    identities,
		listings:      listings,
		offers:        offer.NewService(offer.NewRepository(pool), listings, bridge, logger),
		wishlist:      wishlist.NewService(wishlist.NewRepository(pool), listings),
		reviews:       review.NewService(review.NewRepository(pool), listings),
		cascade:       fraud.NewCascade(identities, listings, logger),
		payments:      payment.NewService(bridge),
		limiter:       limiter,
		rateLimit:     cfg.RateLimitPerMinute,
		cookieSecure:  cfg.CookieSecure,
		trustProxy:    cfg.TrustProxy,
		corsOrigins:   cfg.CORSOrigins,
		photosEnabled: photos != nil,
		logger:        logger,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("http server shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newLimiter prefers Redis and falls back to process memory. An unreachable
// Redis at startup is logged; the Redis limiter degrades per request.
func newLimiter(ctx context.Context, cfg config.Config, logger *slog.Logger) (ratelimit.Limiter, func()) {
	if cfg.RedisAddr == "" {
		return ratelimit.NewInMemory(time.Minute), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable; rate limits kept in memory until it recovers", slog.Any("error", err))
	}
	return ratelimit.NewRedis(client, time.Minute), func() { _ = client.Close() }
}
