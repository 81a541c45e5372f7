package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pdfquiz/internal/api"
	"pdfquiz/internal/api/handlers"
	"pdfquiz/internal/config"
	"pdfquiz/internal/extractor"
	"pdfquiz/internal/gemini"
	"pdfquiz/internal/logger"
	"pdfquiz/internal/monitoring"
	"pdfquiz/internal/prompt"
	"pdfquiz/internal/quiz"
	"pdfquiz/internal/tracing"
	"pdfquiz/internal/usage"
)

func main() {
	config.LoadEnv()

	cfg, err := config.Load(".", "./config")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.Log.Mode, cfg.Log.File)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	shutdownTracing, err := tracing.Init(cfg.Tracing.Enabled, cfg.Tracing.ServiceName, os.Stdout, appLog)
	if err != nil {
		appLog.Fatal("Failed to initialize tracing", "error", err)
	}

	monitoring.Init()

	// Types stored in the session must be known to gob.
	handlers.RegisterSessionTypes()

	secret := cfg.Session.Secret
	if secret == "" {
		secret = uuid.NewString()
		appLog.Warn("SESSION_SECRET is not set; using a random secret, sessions will not survive a restart")
	}
	store := memstore.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAge,
		Secure:   cfg.Session.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	provider := gemini.NewProvider(gemini.Config{
		Model:           cfg.Gemini.Model,
		Temperature:     cfg.Gemini.Temperature,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	}, appLog)
	generator := quiz.NewGenerator(provider, cfg.Gemini.Timeout, appLog)

	handler := handlers.NewHandler(extractor.New(appLog), generator, appLog, handlers.Options{
		Prompts: prompt.Builder{Language: cfg.Quiz.Language},
		Credit: usage.Policy{
			WelcomeCredit:  cfg.Credit.Welcome,
			UnitCost:       cfg.Credit.UnitCost,
			WarnBelow:      cfg.Credit.WarnBelow,
			ExhaustedBelow: cfg.Credit.ExhaustedBelow,
		},
		ServerAPIKey:   cfg.Gemini.APIKey,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, handler, appLog, api.RouteConfig{
		ServiceName: cfg.Tracing.ServiceName,
		FrontendURL: cfg.Server.FrontendURL,
		SessionName: cfg.Session.Name,
		Sessions:    store,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Info("Server listening", "port", cfg.Server.Port, "model", cfg.Gemini.Model,
			"hosted_key", cfg.Gemini.APIKey != "")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLog.Error("Server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		appLog.Error("Failed to flush traces", "error", err)
	}

	appLog.Info("Server exited properly")
}
