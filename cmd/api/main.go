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
	"github.com/robfig/cron/v3"

	"imagestudio/internal/history"
	"imagestudio/internal/http/handlers"
	httpapi "imagestudio/internal/http/httpapi"
	"imagestudio/internal/infra"
	"imagestudio/internal/infra/geoip"
	"imagestudio/internal/middleware"
	"imagestudio/internal/providers/genai"
	"imagestudio/internal/providers/image"
	"imagestudio/internal/providers/prompt"
	"imagestudio/internal/providers/qwen"
	"imagestudio/internal/storage"
	"imagestudio/internal/studio"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// History store is optional: without DATABASE_URL the studio runs fully
	// in-memory and the history endpoints answer 503.
	var histQueries *history.Queries
	if cfg.HistoryEnabled() {
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()

		histQueries = history.New(infra.NewSQLRunner(dbpool, logger))
		if err := histQueries.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare history schema")
		}
	} else {
		logger.Info().Msg("DATABASE_URL not set; generation history disabled")
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable; locale falls back to headers")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	files, err := storage.NewFileStore(cfg.AssetDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.AssetDir).Msg("failed to prepare asset directory")
	}

	generator, err := buildGenerator(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build image generator")
	}

	store := studio.NewStore(cfg.SessionTTL, logger)
	svc, err := studio.NewService(studio.Options{
		Store:       store,
		Generator:   generator,
		Files:       files,
		Recorder:    recorderOrNil(histQueries),
		Logger:      logger,
		Concurrency: cfg.ImageConcurrency,
		Timeout:     cfg.ImageTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build studio service")
	}

	app := &handlers.App{
		Config:    cfg,
		Logger:    logger,
		Studio:    svc,
		Suggester: buildSuggester(cfg, logger),
		History:   histQueries,
	}

	router := httpapi.NewRouter(app, lookup)
	server := infra.NewHTTPServer(cfg, router)

	sched := cron.New()
	if _, err := sched.AddFunc("@every 5m", func() {
		if n := store.Sweep(time.Now()); n > 0 {
			logger.Info().Int("sessions", n).Msg("swept expired sessions")
		}
	}); err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule session sweep")
	}
	if histQueries != nil && cfg.HistoryRetention > 0 {
		if _, err := sched.AddFunc("@daily", func() {
			pruneCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			cutoff := time.Now().Add(-cfg.HistoryRetention)
			n, err := histQueries.PurgeBefore(pruneCtx, cutoff)
			if err != nil {
				logger.Warn().Err(err).Msg("history retention sweep failed")
				return
			}
			if n > 0 {
				logger.Info().Int64("rows", n).Time("cutoff", cutoff).Msg("pruned generation history")
			}
		}); err != nil {
			logger.Fatal().Err(err).Msg("failed to schedule history retention")
		}
	}
	sched.Start()
	defer sched.Stop()

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// buildGenerator selects the configured primary provider. The Gemini client
// doubles as the standby because it renders synthetic images without
// credentials, keeping the studio usable in development.
func buildGenerator(cfg *infra.Config, logger infra.Logger) (image.Generator, error) {
	geminiClient, err := genai.NewClient(genai.Options{
		APIKey:         cfg.GeminiAPIKey,
		BaseURL:        cfg.GeminiBaseURL,
		Model:          cfg.GeminiModel,
		Logger:         &logger,
		RequestTimeout: cfg.ImageTimeout,
	})
	if err != nil {
		return nil, err
	}
	gemini := image.NewGeminiGenerator(geminiClient)

	if cfg.ImageProvider == "qwen" {
		qwenClient, err := qwen.NewClient(qwen.Options{
			APIKey:         cfg.QwenAPIKey,
			BaseURL:        cfg.QwenBaseURL,
			Model:          cfg.QwenModel,
			Logger:         &logger,
			RequestTimeout: cfg.ImageTimeout,
		})
		if err != nil {
			return nil, err
		}
		return image.WithStandby(image.NewQwenGenerator(qwenClient), gemini), nil
	}
	return gemini, nil
}

// buildSuggester wires the prompt-suggestion chain: presets (or built-ins) as
// the static base, with the Gemini suggester layered on when a key exists and
// PROMPT_PROVIDER selects it.
func buildSuggester(cfg *infra.Config, logger infra.Logger) prompt.Suggester {
	static := prompt.NewStaticSuggester()
	if cfg.PresetsFile != "" {
		loaded, err := prompt.LoadPresets(cfg.PresetsFile)
		if err != nil {
			logger.Warn().Err(err).Str("file", cfg.PresetsFile).Msg("prompt presets unavailable; using built-ins")
		} else {
			static = loaded
		}
	}

	if cfg.PromptProvider != "gemini" || cfg.GeminiAPIKey == "" {
		return static
	}
	suggester, err := prompt.NewGeminiSuggester(prompt.GeminiOptions{
		APIKey:   cfg.GeminiAPIKey,
		BaseURL:  cfg.GeminiBaseURL,
		Fallback: static,
		OnFallback: func(reason string, err error) {
			logger.Warn().Err(err).Str("reason", reason).Msg("prompt suggester fell back to presets")
		},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("gemini suggester unavailable; using presets")
		return static
	}
	return suggester
}

// recorderOrNil keeps the service's Recorder field a true nil when history is
// disabled, instead of a non-nil interface wrapping a nil *Queries.
func recorderOrNil(q *history.Queries) studio.Recorder {
	if q == nil {
		return nil
	}
	return q
}
