// clientx-devserver runs the reference backend over an in-memory store,
// seeded with one account per role.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/clientx/workspace-client/internal/api"
	"github.com/clientx/workspace-client/internal/api/middleware"
	"github.com/clientx/workspace-client/internal/infrastructure/memdb"
	"github.com/clientx/workspace-client/internal/pkg/config"
	"github.com/clientx/workspace-client/pkg/logger"
)

func main() {
	// A .env file is optional.
	_ = godotenv.Load()

	var port string
	var noSeed bool
	pflag.StringVar(&port, "port", "", "listen port (overrides PORT)")
	pflag.BoolVar(&noSeed, "no-seed", false, "start with no accounts")
	pflag.Parse()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.Init(logger.Options{})
		l.Fatal().Err(err).Msg("failed to load configuration")
	}
	if port != "" {
		cfg.Server.Port = port
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "clientx-devserver",
	})

	if cfg.Server.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	store := memdb.New()
	if !noSeed {
		if err := store.Seed(ctx, memdb.DefaultSeed, 0); err != nil {
			log.Fatal().Err(err).Msg("failed to seed accounts")
		}
		for _, a := range memdb.DefaultSeed {
			log.Info().Str("username", a.Username).Str("role", string(a.Role)).Msg("seeded account")
		}
	}

	issuer := middleware.NewIssuer(cfg.Server.JWTSecret, cfg.Server.AccessTokenTTL, cfg.Server.RenewalTokenTTL)
	e := api.NewRouter(store, issuer, log)

	go func() {
		addr := ":" + cfg.Server.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
}
