package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/chartflow/client"
	"github.com/spetersoncode/chartflow/config"
	"github.com/spetersoncode/chartflow/internal/logging"
	"github.com/spetersoncode/chartflow/internal/metrics"
	"github.com/spetersoncode/chartflow/internal/service"
	"github.com/spetersoncode/chartflow/internal/store"
	"github.com/spetersoncode/chartflow/prompt"
	"github.com/spetersoncode/chartflow/workflows"
)

// app holds the wired application for one command invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Recorder
	svc     *service.Service
	stop    context.CancelFunc
}

type appOptions struct {
	passthrough bool
}

// Close flushes the run history and stops background consumers.
func (a *app) Close() {
	if a.cfg.HistoryPath != "" {
		if err := a.svc.Store().Sync(context.Background()); err != nil {
			a.logger.Warn("run history not saved", "path", a.cfg.HistoryPath, "error", err)
		}
	}
	a.stop()
}

func bootstrap(cmd *cobra.Command, g *globalFlags, opts appOptions) (*app, error) {
	cfg, err := config.Load(g.overrides(cmd))
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(level)

	models, err := config.LoadModels(cfg.ModelConfigPath)
	if err != nil {
		return nil, err
	}
	chatSpec, err := models.Resolve(cfg.Provider)
	if err != nil {
		return nil, err
	}
	classifierSpec := resolveClassifier(cfg, models, chatSpec, logger)
	searchSpec, err := resolveSearch(cfg, models, chatSpec, logger)
	if err != nil {
		return nil, err
	}

	ctx, stop := context.WithCancel(context.Background())
	rec := metrics.New()
	events := make(chan client.Event, 64)
	go rec.Consume(ctx, events)

	c := client.New(client.Config{
		APIKeys: client.APIKeys{
			Anthropic: cfg.AnthropicKey,
			OpenAI:    cfg.OpenAIKey,
			Google:    cfg.GoogleKey,
		},
		Defaults: client.Defaults{
			Chat:   chatSpec.Model,
			Search: searchSpec.Model,
		},
		Events: events,
	})

	execs, err := workflows.BuildAll(workflows.Deps{
		Chat:              c,
		Classifier:        c,
		Searcher:          c,
		Prompts:           prompt.NewLoader(cfg.PromptsDir, prompt.WithLogger(logger)),
		ChatOptions:       chatSpec.Options(),
		ClassifierOptions: classifierSpec.Options(),
		SearchOptions:     searchSpec.Options(),
		PassthroughFormat: opts.passthrough,
		Logger:            logger,
		Observer:          rec,
	})
	if err != nil {
		stop()
		return nil, err
	}

	history, err := openHistory(cfg)
	if err != nil {
		stop()
		return nil, err
	}

	logger.Debug("chartflow configured",
		"provider", cfg.Provider,
		"chat_model", chatSpec.Model.String(),
		"classifier_model", classifierSpec.Model.String(),
		"search_model", searchSpec.Model.String(),
		"history", cfg.HistoryPath,
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: rec,
		svc: service.New(execs,
			service.WithStore(history),
			service.WithTimeout(cfg.Timeout),
			service.WithLogger(logger),
		),
		stop: stop,
	}, nil
}

// resolveClassifier picks the classifier entry, falling back to the chat
// entry when it is missing or its provider has no API key.
func resolveClassifier(cfg *config.Config, models *config.Models, chat config.ModelSpec, logger *slog.Logger) config.ModelSpec {
	spec, err := models.Resolve(cfg.ClassifierKey)
	if err != nil {
		logger.Debug("classifier model unavailable, using chat model", "key", cfg.ClassifierKey, "error", err)
		return chat
	}
	if cfg.APIKey(spec.Model.Provider()) == "" {
		logger.Warn("no API key for classifier provider, using chat model",
			"key", cfg.ClassifierKey, "provider", spec.Model.Provider())
		return chat
	}
	return spec
}

// resolveSearch picks the search entry. An explicit key must name a
// provider that can search; otherwise the chat entry is used when its
// provider searches, then the first configured entry that can.
func resolveSearch(cfg *config.Config, models *config.Models, chat config.ModelSpec, logger *slog.Logger) (config.ModelSpec, error) {
	usable := func(spec config.ModelSpec) bool {
		p := spec.Model.Provider()
		return client.SupportsFeature(p, client.FeatureWebSearch) && cfg.APIKey(p) != ""
	}

	if cfg.SearchKey != "" {
		spec, err := models.Resolve(cfg.SearchKey)
		if err != nil {
			return config.ModelSpec{}, err
		}
		if !usable(spec) {
			return config.ModelSpec{}, fmt.Errorf("search model %q: %s cannot search or has no API key", cfg.SearchKey, spec.Model.Provider())
		}
		return spec, nil
	}
	if usable(chat) {
		return chat, nil
	}
	for _, key := range models.Keys() {
		spec, err := models.Resolve(key)
		if err == nil && usable(spec) {
			logger.Info("chat provider cannot search, using another model for web search",
				"provider", chat.Model.Provider(), "search_model", key)
			return spec, nil
		}
	}
	// Search steps record the failure in the state instead of aborting.
	logger.Warn("no configured model can search the web", "provider", chat.Model.Provider())
	return chat, nil
}

func openHistory(cfg *config.Config) (*store.Store, error) {
	if cfg.HistoryPath == "" {
		return store.New(nil, cfg.HistorySize), nil
	}
	st := store.New(store.NewFileAdapter(cfg.HistoryPath), cfg.HistorySize)
	if err := st.Reload(context.Background()); err != nil {
		return nil, fmt.Errorf("run history %s: %w", cfg.HistoryPath, err)
	}
	return st, nil
}
