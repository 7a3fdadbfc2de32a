package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/doctree/internal/api"
	"github.com/edvin/doctree/internal/billing"
	"github.com/edvin/doctree/internal/config"
	"github.com/edvin/doctree/internal/core"
	"github.com/edvin/doctree/internal/db"
	"github.com/edvin/doctree/internal/llm"
	"github.com/edvin/doctree/internal/logging"
	"github.com/edvin/doctree/internal/metrics"
	"github.com/edvin/doctree/internal/search"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "create-user":
			createUser(os.Args[2:])
			return
		case "create-api-key":
			createAPIKey(os.Args[2:])
			return
		case "link-stripe-customer":
			linkStripeCustomer(os.Args[2:])
			return
		}
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("doctree-api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	tc, err := temporalclient.Dial(temporalclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	pricing, err := config.LoadPricing(cfg.PricingFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load pricing")
	}
	meter := billing.NewMeter(billing.NewPGSubscriptionStore(pool), billing.NewPGUsageStore(pool), pricing)

	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	webSearch := search.NewWebClient(cfg.WebSearchBaseURL, cfg.WebSearchAPIKey)
	videoSearch := search.NewVideoClient(cfg.VideoSearchBaseURL, cfg.VideoSearchAPIKey)

	services := core.NewServices(pool, tc, meter, llmClient, webSearch, videoSearch)
	srv := api.NewServer(logger, pool, tc, services, meter, cfg)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}

// adminPool opens a short-lived pool for the operator subcommands.
func adminPool(ctx context.Context) *pgxpool.Pool {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	return pool
}

func createUser(args []string) {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	email := fs.String("email", "", "Email address (required)")
	name := fs.String("name", "", "Display name")
	fs.Parse(args)

	if *email == "" {
		fmt.Fprintln(os.Stderr, "error: --email is required")
		fmt.Fprintln(os.Stderr, "usage: doctree-api create-user --email <email> [--name <name>]")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool := adminPool(ctx)
	defer pool.Close()

	user, err := core.NewUserService(pool).Create(ctx, *email, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("User created.\n\n")
	fmt.Printf("  ID:     %s\n", user.ID)
	fmt.Printf("  Email:  %s\n", user.Email)
}

// linkStripeCustomer attaches a Stripe customer ID to a user so that
// subscription webhook events can be attributed. Checkout happens outside
// this system, so the link is made by the operator.
func linkStripeCustomer(args []string) {
	fs := flag.NewFlagSet("link-stripe-customer", flag.ExitOnError)
	user := fs.String("user", "", "User ID (required)")
	customer := fs.String("customer", "", "Stripe customer ID (required)")
	fs.Parse(args)

	if *user == "" || *customer == "" {
		fmt.Fprintln(os.Stderr, "error: --user and --customer are required")
		fmt.Fprintln(os.Stderr, "usage: doctree-api link-stripe-customer --user <user-id> --customer <cus_...>")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool := adminPool(ctx)
	defer pool.Close()

	if err := core.NewUserService(pool).SetStripeCustomerID(ctx, *user, *customer); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to link stripe customer: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Linked user %s to stripe customer %s.\n", *user, *customer)
}

func createAPIKey(args []string) {
	fs := flag.NewFlagSet("create-api-key", flag.ExitOnError)
	user := fs.String("user", "", "User ID the key belongs to (required)")
	name := fs.String("name", "", "Name for the API key (required)")
	fs.Parse(args)

	if *user == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "error: --user and --name are required")
		fmt.Fprintln(os.Stderr, "usage: doctree-api create-api-key --user <user-id> --name <name>")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool := adminPool(ctx)
	defer pool.Close()

	key, rawKey, err := core.NewAPIKeyService(pool).Create(ctx, *user, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create API key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("API key created successfully.\n\n")
	fmt.Printf("  Name:   %s\n", key.Name)
	fmt.Printf("  ID:     %s\n", key.ID)
	fmt.Printf("  Key:    %s\n\n", rawKey)
	fmt.Printf("Save this key — it will not be shown again.\n")
}
