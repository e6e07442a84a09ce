package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-backend/internal/config"
	"portfolio-backend/internal/database"
	"portfolio-backend/internal/events"
	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/logging"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/profile"
	"portfolio-backend/internal/render"
	"portfolio-backend/internal/router"
	"portfolio-backend/internal/services"
	"portfolio-backend/internal/session"
	"portfolio-backend/internal/websocket"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.JSONLogs())
	log.Info("starting portfolio backend", "env", cfg.Env)

	// ──── Step 2: Load Profile ────
	prof := profile.Default()
	if cfg.ProfilePath != "" {
		prof, err = profile.Load(cfg.ProfilePath)
		if err != nil {
			log.Error("profile load failed", "path", cfg.ProfilePath, "error", err)
			os.Exit(1)
		}
	}
	log.Info("profile loaded", "name", prof.Name, "skills", len(prof.Skills), "projects", len(prof.Projects))

	// ──── Step 3: Initialize Gemini Client ────
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY is empty; every reply will be the fallback message")
	}
	geminiService := services.NewGeminiService(
		cfg.GeminiAPIKey,
		cfg.GeminiModel,
		prof.SystemInstruction(),
		cfg.GeminiConcurrentReqs,
		cfg.GeminiTimeout,
		log.With("component", "gemini"),
	)
	defer geminiService.Close()

	// ──── Step 4: Event Broker ────
	var broker events.Broker = events.NewLocalBroker()
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		broker = events.NewRedisBroker(redisClient)
		log.Info("redis pub/sub connected")
	}

	// ──── Step 5: Session Registry ────
	registry := session.NewRegistry(geminiService, session.Config{
		Greeting:      prof.Greeting(),
		IdleTimeout:   cfg.SessionIdleTimeout,
		SweepInterval: cfg.SessionSweepInterval,
		Publisher:     events.NewPublisher(broker),
		Renderer:      render.New(time.Local),
		Logger:        log.With("component", "session"),
	})
	registry.Start()

	// ──── Step 6: Handlers, Hub, Router ────
	tokens := middleware.NewSessionTokens(cfg.SessionSecret, cfg.SessionTokenTTL)
	wsHub := websocket.NewHub(broker, tokens, registry, log.With("component", "websocket"))

	r := router.New(
		tokens,
		handlers.NewSessionHandler(registry, tokens, log.With("component", "handlers")),
		handlers.NewProfileHandler(prof),
		wsHub,
		cfg.FrontendURL,
		log,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")
		registry.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Warn("server shutdown", "error", err)
		}
		registry.Drain()
	}()

	log.Info("portfolio backend ready",
		"api", fmt.Sprintf("http://localhost:%s/api/v1", cfg.Port),
		"ws", fmt.Sprintf("ws://localhost:%s/api/v1/ws", cfg.Port),
	)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
