package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pokevault/auctioneer/internal/auction"
	"github.com/pokevault/auctioneer/internal/bot"
	"github.com/pokevault/auctioneer/internal/bot/commands"
	"github.com/pokevault/auctioneer/internal/clock"
	"github.com/pokevault/auctioneer/internal/config"
	"github.com/pokevault/auctioneer/internal/health"
	"github.com/pokevault/auctioneer/internal/ledger"
	"github.com/pokevault/auctioneer/internal/telemetry"

	// Register ledger drivers so they are available via ledger.Open.
	_ "github.com/pokevault/auctioneer/internal/ledger/jsonfile"
	_ "github.com/pokevault/auctioneer/internal/ledger/postgres"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		slog.Error("fatal error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	tp, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry setup failed, continuing without OTEL export", slog.Any("error", err))
		tp = telemetry.NewNopProvider()
	}
	defer func() {
		if shutdownErr := tp.Shutdown(context.Background()); shutdownErr != nil {
			slog.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	logger := tp.Logger
	clk := clock.Real{}

	// Open the ledger store using the configured driver.
	handle, err := ledger.Open(ctx, cfg.Ledger, ledger.Options{
		NextIDStart: cfg.Auction.NextIDStart,
	})
	if err != nil {
		return fmt.Errorf("opening ledger (driver=%s): %w", cfg.Ledger.Driver, err)
	}
	defer handle.Closer.Close()

	logger.InfoContext(ctx, "ledger opened", slog.String("driver", cfg.Ledger.Driver))

	// The bot doubles as the engine's notifier, so it is built first and the
	// gateway is opened only once the engine has recovered.
	discordBot, err := bot.New(cfg.Discord, logger)
	if err != nil {
		return fmt.Errorf("creating bot: %w", err)
	}

	rules := auction.Rules{
		StartingCoins:   cfg.Auction.StartingCoins,
		DefaultMinBid:   cfg.Auction.DefaultMinBid,
		DefaultDuration: cfg.Auction.DefaultDuration,
		NextIDStart:     cfg.Auction.NextIDStart,
		ReportChannel:   cfg.Discord.ReportChannel,
	}
	svc, err := auction.NewService(ctx, handle.Store, rules, discordBot, logger, tp.TracerProvider, clk)
	if err != nil {
		return fmt.Errorf("starting auction engine: %w", err)
	}
	defer svc.Stop()

	healthHandler := health.NewHandler(clk,
		health.Check{Name: "ledger", Probe: handle.Ping},
		health.Check{Name: "discord", Probe: discordBot.Ping},
	)

	mux := http.NewServeMux()
	healthHandler.Register(mux)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoContext(ctx, "starting health server", slog.Int("port", cfg.Server.Port))
		if listenErr := httpServer.ListenAndServe(); listenErr != nil && listenErr != http.ErrServerClosed {
			logger.ErrorContext(ctx, "health server error", slog.Any("error", listenErr))
		}
	}()

	// Settle the downtime backlog and re-arm timers before any command can
	// come in over the gateway.
	rearmed, settled, err := svc.Recover(ctx)
	if err != nil {
		return fmt.Errorf("recovering auctions: %w", err)
	}
	if rearmed+settled > 0 {
		logger.InfoContext(ctx, "recovered auctions",
			slog.Int("rearmed", rearmed), slog.Int("settled_overdue", settled))
	}

	handlers := commands.NewHandlers(svc, cfg.Discord, cfg.Auction.DefaultDuration, clk, logger, tp.TracerProvider)
	if err := discordBot.Start(ctx, handlers); err != nil {
		return fmt.Errorf("starting bot: %w", err)
	}

	healthHandler.SetReady(true)
	logger.InfoContext(ctx, "auctioneer is running", slog.String("version", version))

	<-ctx.Done()
	logger.Info("shutting down...")

	healthHandler.SetReady(false)

	if stopErr := discordBot.Stop(); stopErr != nil {
		logger.Error("bot shutdown error", slog.Any("error", stopErr))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}
