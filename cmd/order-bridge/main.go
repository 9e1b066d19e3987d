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

	"github.com/zapmercado/order-bridge/internal/api"
	"github.com/zapmercado/order-bridge/internal/biz/domain"
	"github.com/zapmercado/order-bridge/internal/biz/repo"
	"github.com/zapmercado/order-bridge/internal/biz/usecase"
	"github.com/zapmercado/order-bridge/internal/conf"
	"github.com/zapmercado/order-bridge/internal/data"
	"github.com/zapmercado/order-bridge/internal/logging"
	"github.com/zapmercado/order-bridge/internal/service"
)

func main() {
	godotenv.Load()

	config, err := conf.Load()
	if err != nil {
		bootLog := logging.New("info")
		bootLog.Fatal().Err(err).Msg("configuration error")
	}
	log := logging.New(config.LogLevel)
	if config.LLMAPIKey == "" {
		log.Fatal().Msg("LLM_API_KEY is required")
	}

	prompts, err := conf.LoadPrompts(config.PromptsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("prompts error")
	}

	backends, err := data.NewBackends(config)
	if err != nil {
		log.Fatal().Err(err).Msg("data layer error")
	}
	defer backends.Close()

	sessionConfig := domain.DefaultSessionConfig()
	sessionConfig.BuildingTTL = config.SessionTTL
	sessionConfig.ModificationTTL = config.ModificationTTL

	bufferConfig := usecase.DefaultBufferConfig()
	bufferConfig.QuietTime = config.BufferQuietTime
	bufferConfig.MaxStalls = config.BufferMaxStalls

	cooldownConfig := usecase.CooldownConfig{TTL: config.CooldownTTL}

	sessions := usecase.NewSessionUsecase(backends.Store, sessionConfig, logging.Sub(log, "session"))
	carts := usecase.NewCartUsecase(backends.Store, backends.Orders, sessions, sessionConfig, logging.Sub(log, "cart"))
	orders := usecase.NewOrderUsecase(backends.Orders, carts, sessions, logging.Sub(log, "order"))
	breaker := usecase.NewBreakerUsecase(backends.Store, usecase.DefaultBreakerConfig(), logging.Sub(log, "breaker"))
	stock := usecase.NewStockUsecase(backends.Stock, backends.Store, breaker, usecase.DefaultStockConfig(), logging.Sub(log, "stock"))
	suggestions := usecase.NewSuggestionsUsecase(backends.Store, usecase.DefaultSuggestionsConfig(), logging.Sub(log, "suggestions"))
	receipts := usecase.NewReceiptUsecase(backends.Store, sessionConfig, logging.Sub(log, "receipt"))
	cooldown := usecase.NewCooldownUsecase(backends.Store, cooldownConfig, logging.Sub(log, "cooldown"))
	buffer := usecase.NewBufferUsecase(backends.Store, bufferConfig, logging.Sub(log, "buffer"))
	lock := usecase.NewLockUsecase(backends.Store, usecase.DefaultLockConfig(), logging.Sub(log, "lock"))

	toolset := &service.Toolset{
		Stock:       stock,
		Suggestions: suggestions,
		Carts:       carts,
		Orders:      orders,
		Sessions:    sessions,
		Receipts:    receipts,
		Cooldown:    cooldown,
	}

	llmConfig := data.DefaultLLMConfig()
	llmConfig.APIKey = config.LLMAPIKey
	llmConfig.BaseURL = config.LLMBaseURL
	llmConfig.Model = config.LLMModel
	llmConfig.Temperature = config.LLMTemperature
	llmConfig.MaxTokens = config.LLMMaxTokens
	llmConfig.HistoryTTL = config.SessionTTL
	llm := data.NewLLMClient(llmConfig, prompts, toolset.Build(), backends.Store, logging.Sub(log, "llm"))

	router := usecase.NewRouterUsecase(llm, llm, sessions, logging.Sub(log, "router"))
	sender := data.NewWebhookSender(config.ReplyWebhookURL, config.ReplyWebhookToken, logging.Sub(log, "sender"))
	turns := service.NewTurnService(buffer, lock, cooldown, router, sender, logging.Sub(log, "turn"))

	var cleaner *service.Cleaner
	if purgeable, ok := backends.Store.(repo.Cleaner); ok {
		cleaner = service.NewCleaner(purgeable, config.CleanupInterval, logging.Sub(log, "cleaner"))
		cleaner.Start()
	}

	handler := api.NewHandler(turns, logging.Sub(log, "api"))
	server := &http.Server{
		Addr:         config.ListenAddr,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", config.ListenAddr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	turns.Stop()
	if cleaner != nil {
		cleaner.Stop()
	}
}
