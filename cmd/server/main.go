package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pepperbot/pepper-server/internal/config"
	"github.com/pepperbot/pepper-server/internal/domain/chat"
	"github.com/pepperbot/pepper-server/internal/domain/conversation"
	"github.com/pepperbot/pepper-server/internal/domain/provider"
	"github.com/pepperbot/pepper-server/internal/domain/user"
	"github.com/pepperbot/pepper-server/internal/infrastructure/database"
	"github.com/pepperbot/pepper-server/internal/infrastructure/database/repository/conversationrepo"
	"github.com/pepperbot/pepper-server/internal/infrastructure/database/repository/settingsrepo"
	"github.com/pepperbot/pepper-server/internal/infrastructure/database/repository/userrepo"
	"github.com/pepperbot/pepper-server/internal/infrastructure/database/transaction"
	"github.com/pepperbot/pepper-server/internal/infrastructure/llmclient"
	"github.com/pepperbot/pepper-server/internal/infrastructure/logger"
	"github.com/pepperbot/pepper-server/internal/interfaces/httpserver"
	"github.com/pepperbot/pepper-server/internal/interfaces/httpserver/handlers/chathandler"
	"github.com/pepperbot/pepper-server/internal/interfaces/httpserver/handlers/modelhandler"
	"github.com/pepperbot/pepper-server/internal/interfaces/httpserver/handlers/settingshandler"
	"github.com/pepperbot/pepper-server/internal/utils/httpclients"
)

type Application struct {
	cfg        *config.Config
	httpServer *httpserver.HTTPServer
}

func (application *Application) Start() error {
	var eg errgroup.Group
	eg.Go(func() error {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		return http.ListenAndServe(fmt.Sprintf(":%d", application.cfg.MetricsPort), mux)
	})
	eg.Go(func() error {
		return application.httpServer.Run()
	})
	return eg.Wait()
}

// buildRegistry wires each cataloged model to the client of its provider,
// skipping providers without a configured API key.
func buildRegistry(cfg *config.Config) *provider.Registry {
	log := logger.GetLogger()
	registry := provider.NewRegistry()

	var (
		openaiClient    provider.Client
		anthropicClient provider.Client
		geminiClient    provider.Client
	)
	if cfg.OpenAIAPIKey != "" {
		restyClient := httpclients.NewClient("openai").SetTimeout(cfg.ProviderTimeout)
		openaiClient = llmclient.NewOpenAIClient(restyClient, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)
	}
	if cfg.AnthropicAPIKey != "" {
		restyClient := httpclients.NewClient("anthropic").SetTimeout(cfg.ProviderTimeout)
		anthropicClient = llmclient.NewAnthropicClient(restyClient, cfg.AnthropicBaseURL, cfg.AnthropicAPIKey)
	}
	if cfg.GeminiAPIKey != "" {
		restyClient := httpclients.NewClient("gemini").SetTimeout(cfg.ProviderTimeout)
		geminiClient = llmclient.NewGeminiClient(restyClient, cfg.GeminiBaseURL, cfg.GeminiAPIKey)
	}

	for _, spec := range provider.Catalog() {
		var client provider.Client
		switch spec.Capabilities.Provider {
		case "openai":
			client = openaiClient
		case "anthropic":
			client = anthropicClient
		case "gemini":
			client = geminiClient
		}
		if client == nil {
			log.Warn().
				Str("model", spec.Capabilities.Model).
				Str("provider", spec.Capabilities.Provider).
				Msg("skipping model, provider has no API key configured")
			continue
		}
		registry.Register(client, spec)
	}
	return registry
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.GetLogger()
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		bootLog := logger.GetLogger()
		bootLog.Fatal().Err(err).Msg("initialize logger")
	}

	db, err := database.Connect(database.Config{
		DatabaseURL: cfg.DatabaseURL,
		MaxIdle:     10,
		MaxOpen:     25,
		MaxLifetime: time.Hour,
		LogLevel:    gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if cfg.AutoMigrate {
		if err := database.Migration(db); err != nil {
			log.Fatal().Err(err).Msg("migrate database")
		}
	}

	tx := transaction.NewDatabase(db)
	users := user.NewService(userrepo.NewRepository(tx))
	store := conversation.NewService(conversationrepo.NewRepository(tx), settingsrepo.NewRepository(tx))

	registry := buildRegistry(cfg)
	orchestrator := chat.NewOrchestrator(users, store, registry, cfg.RetryBaseDelay, cfg.RetryMaxAttempts)

	server := httpserver.NewHTTPServer(
		cfg,
		log,
		chathandler.NewHandler(orchestrator),
		settingshandler.NewHandler(users, store),
		modelhandler.NewHandler(registry),
	)

	application := &Application{cfg: cfg, httpServer: server}
	log.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Int("http_port", cfg.HTTPPort).
		Int("metrics_port", cfg.MetricsPort).
		Str("version", config.Version).
		Msg("starting pepper server")
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
