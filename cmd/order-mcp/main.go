package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/zapmercado/order-bridge/internal/biz/domain"
	"github.com/zapmercado/order-bridge/internal/biz/usecase"
	"github.com/zapmercado/order-bridge/internal/conf"
	"github.com/zapmercado/order-bridge/internal/data"
	"github.com/zapmercado/order-bridge/internal/logging"
	"github.com/zapmercado/order-bridge/mcpserver"
)

// order-mcp serves the operational inspection tools over MCP stdio,
// pointed at the same store as the bridge.
func main() {
	godotenv.Load()

	// MCP speaks on stdout, keep logs on stderr only.
	log := logging.New(os.Getenv("LOG_LEVEL"))

	config, err := conf.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	backends, err := data.NewBackends(config)
	if err != nil {
		log.Fatal().Err(err).Msg("data layer error")
	}
	defer backends.Close()

	sessionConfig := domain.DefaultSessionConfig()
	sessionConfig.BuildingTTL = config.SessionTTL
	sessionConfig.ModificationTTL = config.ModificationTTL

	sessions := usecase.NewSessionUsecase(backends.Store, sessionConfig, logging.Sub(log, "session"))
	carts := usecase.NewCartUsecase(backends.Store, backends.Orders, sessions, sessionConfig, logging.Sub(log, "cart"))
	buffer := usecase.NewBufferUsecase(backends.Store, usecase.DefaultBufferConfig(), logging.Sub(log, "buffer"))
	breaker := usecase.NewBreakerUsecase(backends.Store, usecase.DefaultBreakerConfig(), logging.Sub(log, "breaker"))
	cooldown := usecase.NewCooldownUsecase(backends.Store, usecase.CooldownConfig{TTL: config.CooldownTTL}, logging.Sub(log, "cooldown"))
	suggestions := usecase.NewSuggestionsUsecase(backends.Store, usecase.DefaultSuggestionsConfig(), logging.Sub(log, "suggestions"))

	server := mcpserver.NewServer(sessions, carts, buffer, breaker, cooldown, suggestions)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("mcp server error")
	}
}
