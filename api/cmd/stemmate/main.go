package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"stemmate/api/internal/config"
	"stemmate/api/internal/handle"
	"stemmate/api/internal/httpserver"
	"stemmate/api/internal/pipeline"
	"stemmate/api/internal/telegram"
	"stemmate/api/internal/tutor"
	"stemmate/api/internal/tutor/gemini"
	"stemmate/api/internal/tutor/openai"
)

func main() {
	cfg := config.Load()

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}

	// Бэкенды: всё по умолчанию в OpenAI-совместимый API, gemini-* в Gemini.
	backends := tutor.NewRouter(openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL))
	if cfg.GeminiAPIKey != "" {
		backends.RegisterPrefix("gemini-", gemini.New(cfg.GeminiAPIKey))
	}
	log.Printf("backends: %v", backends.Backends())

	orch := pipeline.New(tutor.NewAdapter(backends, catalog), pipeline.Config{
		ExtractModel: cfg.ExtractModel,
		ExplainModel: cfg.ExplainModel,
		AugmentModel: cfg.AugmentModel,
		DefaultQueue: cfg.ModelQueue,
		Language:     cfg.Language,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	h := handle.New(orch, catalog, cfg.RequestTimeout)
	g.Go(func() error {
		return httpserver.Serve(ctx, ":"+cfg.Port, httpserver.NewMux(h))
	})

	if cfg.TelegramToken != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			log.Fatal(err)
		}
		bot.Debug = false
		log.Printf("telegram: authorized as @%s", bot.Self.UserName)

		r := &telegram.Router{
			Bot:     bot,
			Orch:    orch,
			Catalog: catalog,
			Timeout: cfg.RequestTimeout,
		}
		g.Go(func() error { return r.Poll(ctx, bot) })
	}

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	log.Printf("stemmate stopped")
}
