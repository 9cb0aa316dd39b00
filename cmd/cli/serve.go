package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theblitlabs/starknet-env/internal/api"
	"github.com/theblitlabs/starknet-env/internal/api/handlers"
	"github.com/theblitlabs/starknet-env/internal/bridge"
	"github.com/theblitlabs/starknet-env/internal/config"
	"github.com/theblitlabs/starknet-env/internal/connection"
	"github.com/theblitlabs/starknet-env/internal/environment"
	"github.com/theblitlabs/starknet-env/internal/models"
	"github.com/theblitlabs/starknet-env/internal/monitoring/health"
	"github.com/theblitlabs/starknet-env/internal/notify"
	"github.com/theblitlabs/starknet-env/internal/server"
	"github.com/theblitlabs/starknet-env/internal/session"
	"github.com/theblitlabs/starknet-env/internal/utils/errorutil"
	"github.com/theblitlabs/starknet-env/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func newNotifier(cfg config.NotifierConfig, b *bridge.Bridge) notify.Notifier {
	switch cfg.Kind {
	case config.NotifierWebhook:
		return notify.NewWebhookNotifier(cfg.WebhookURL, cfg.Timeout)
	case config.NotifierLog:
		return notify.LogNotifier{}
	default:
		return b
	}
}

// RunServe starts the environment service and blocks until SIGINT or SIGTERM.
func RunServe(configPath string) error {
	log := logger.WithComponent("cli")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	mode, err := models.ParseEnvMode(cfg.Environment.DefaultMode)
	if err != nil {
		return err
	}

	b := bridge.New(bridge.Config{
		RequestTimeout: cfg.Bridge.RequestTimeout,
		WriteWait:      cfg.Bridge.WriteWait,
		PongWait:       cfg.Bridge.PongWait,
		MaxMessageSize: cfg.Bridge.MaxMessageSize,
	})
	defer b.Close()

	state := connection.NewState()
	selector := environment.NewSelector(state, cfg.Devnets, mode, cfg.Environment.DevnetTimeout)
	controller := session.NewController(b, newNotifier(cfg.Notifier, b), state, session.Config{
		StarknetVersion: cfg.Wallet.StarknetVersion,
		ResyncTimeout:   cfg.Wallet.ResyncTimeout,
	})
	env := environment.New(state, selector, controller)
	defer env.Close()

	initCtx, cancel := context.WithTimeout(context.Background(), cfg.Environment.DevnetTimeout)
	errorutil.HandleContextError(log, initCtx, env.Init(initCtx, cfg.Environment.DefaultDevnet),
		"Default devnet timed out", "Default devnet unavailable")
	cancel()

	checker := health.NewHealthChecker(cfg.Server.HealthInterval)
	checker.Register("bridge", health.BridgeCheck(b.Connected))
	checker.Register("devnet", health.DevnetCheck(selector))
	checker.Start(context.Background())
	defer checker.Stop()

	router := api.NewRouter(handlers.NewEnvironmentHandler(env), b, checker, cfg.Server.Endpoint, cfg.Bridge.Path)
	srv := server.NewServer(server.Config{
		Addr:         cfg.Address(),
		WriteTimeout: cfg.Bridge.RequestTimeout + shutdownTimeout,
	}, router)

	if err := srv.Listen(); err != nil {
		return fmt.Errorf("server port is not available: %w", err)
	}

	log.Info().
		Str("address", srv.Addr()).
		Str("endpoint", cfg.Server.Endpoint).
		Str("bridge", cfg.Server.Endpoint+cfg.Bridge.Path).
		Str("mode", string(mode)).
		Str("notifier", cfg.Notifier.Kind).
		Msg("Environment service starting")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve()
	}()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stopChan)

	select {
	case err := <-serveErr:
		return err
	case <-stopChan:
		log.Info().Msg("Shutdown signal received, gracefully shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Close the bridge first so hijacked WebSocket connections do not hold shutdown.
	b.Close()
	if err := srv.Stop(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().Msg("Server shutdown deadline exceeded, forcing immediate shutdown")
		}
		return err
	}

	log.Info().Msg("Shutdown complete")
	return <-serveErr
}
