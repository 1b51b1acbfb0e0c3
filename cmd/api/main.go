package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/companionhq/companion/backend/internal/auth"
	"github.com/companionhq/companion/backend/internal/config"
	"github.com/companionhq/companion/backend/internal/entitlement"
	"github.com/companionhq/companion/backend/internal/handler"
	"github.com/companionhq/companion/backend/internal/limiter"
	"github.com/companionhq/companion/backend/internal/model/chat"
	"github.com/companionhq/companion/backend/internal/model/companion"
	"github.com/companionhq/companion/backend/internal/model/usage"
	"github.com/companionhq/companion/backend/internal/service/ai"
	companionService "github.com/companionhq/companion/backend/internal/service/companion"
	sessionService "github.com/companionhq/companion/backend/internal/service/session"
	"github.com/companionhq/companion/backend/internal/store/postgres"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded, using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	var completer ai.Completer = ai.Disabled{}
	if aiCfg := cfg.AI.Completer(); aiCfg.Enabled() {
		completer, err = ai.NewEinoCompleter(ctx, aiCfg)
		if err != nil {
			slog.Error("failed to initialize completion model", "error", err)
			os.Exit(1)
		}
		slog.Info("completion model initialized", "model", cfg.AI.Model)
	} else {
		slog.Warn("completion model not configured, chat replies disabled")
	}

	companionSvc := companionService.New(stores.companions, stores.categories, stores.messages)
	sessionSvc := sessionService.New(sessionService.Deps{
		Companions:        stores.companions,
		Messages:          stores.messages,
		Entitlement:       stores.entitlements,
		Limiter:           limiter.New(stores.usage, cfg.FreeMessageQuota, cfg.FreeQuotaWindow),
		Completer:         completer,
		HistoryLimit:      cfg.HistoryLimit,
		CompletionTimeout: cfg.CompletionTimeout,
	})

	router := handler.NewRouter(handler.Deps{
		Resolver:      auth.HeaderResolver{Header: cfg.CallerHeader},
		Companions:    companionSvc,
		Sessions:      sessionSvc,
		Entitlements:  stores.entitlements,
		WebhookSecret: cfg.WebhookSecret,
		AllowedOrigin: cfg.AllowedOrigin,
	})

	startServer(ctx, cfg.Addr, router)
}

type stores struct {
	companions   companion.Store
	categories   companion.CategoryStore
	messages     chat.Store
	usage        usage.Store
	entitlements entitlement.Store
}

// buildStores picks postgres when DATABASE_URL is set and falls back
// to in-memory stores for local runs without a database.
func buildStores(ctx context.Context, cfg *config.Config) (stores, func(), error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, using in-memory stores")
		return stores{
			companions:   companion.NewMemoryStore(),
			categories:   companion.NewMemoryCategoryStore(companion.SeedCategories()),
			messages:     chat.NewMemoryStore(),
			usage:        usage.NewMemoryStore(),
			entitlements: entitlement.NewMemoryStore(),
		}, func() {}, nil
	}

	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		return stores{}, nil, err
	}

	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, nil, err
	}

	return stores{
		companions:   store,
		categories:   store,
		messages:     store.Chat(),
		usage:        store,
		entitlements: store,
	}, store.Close, nil
}

func startServer(ctx context.Context, addr string, router http.Handler) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("companion backend listening", "addr", addr)
	if err := runServer(ctx, srv); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
