package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/faqbot/internal/audit"
	"github.com/nextlevelbuilder/faqbot/internal/auth"
	"github.com/nextlevelbuilder/faqbot/internal/config"
	"github.com/nextlevelbuilder/faqbot/internal/faq"
	"github.com/nextlevelbuilder/faqbot/internal/tracing"
	"github.com/nextlevelbuilder/faqbot/internal/webhook"
	"github.com/nextlevelbuilder/faqbot/internal/workvivo"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	// Setup structured logging
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if cfg.Auth.BypassEnabled {
		slog.Warn("auth.bypass_enabled", "hint", "disable FAQBOT_BYPASS_TOKEN in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Telemetry)
	if err != nil {
		slog.Error("failed to init telemetry", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	auditLog, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		slog.Error("failed to open audit log", "error", err)
		os.Exit(1)
	}
	defer auditLog.Close()

	matcher, err := faq.NewMatcher(cfg.FAQ.Matcher)
	if err != nil {
		slog.Error("invalid matcher config", "error", err)
		os.Exit(1)
	}
	store, err := faq.OpenSQLite(cfg.FAQ.DBPath, matcher)
	if err != nil {
		slog.Error("failed to open faq store", "error", err, "path", cfg.FAQ.DBPath)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("faq store opened", "path", cfg.FAQ.DBPath, "matcher", matcher.Name())

	verifier := auth.NewVerifier(auth.Config{
		BypassEnabled:   cfg.Auth.BypassEnabled,
		BypassSentinel:  cfg.Auth.BypassSentinel,
		PinnedKeySetURL: cfg.Auth.KeySetURL,
	}, auth.NewKeySetCache(cfg.Auth.FetchTimeout))

	client := workvivo.NewClient(cfg.Workvivo.APIURL, cfg.Workvivo.Token, cfg.Workvivo.ID)

	server := webhook.NewServer(cfg, verifier, faq.NewResolver(store), client, auditLog)
	if err := server.Start(ctx); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
