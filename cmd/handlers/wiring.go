package handlers

import (
	"fmt"

	"newsintel/internal/classify"
	"newsintel/internal/config"
	"newsintel/internal/interactions"
	"newsintel/internal/llm"
	"newsintel/internal/logger"
	"newsintel/internal/normalize"
	"newsintel/internal/pipeline"
	"newsintel/internal/recommend"
	"newsintel/internal/services"
	"newsintel/internal/store"
	"newsintel/internal/summarize"
)

// app bundles the wired components a handler needs. Handlers build it per
// invocation and close it when done.
type app struct {
	cfg          *config.Config
	store        *store.Store
	interactions *interactions.Store
	llmClient    *llm.Client
	orchestrator *pipeline.Orchestrator
	service      *services.Service
}

// newApp wires the full pipeline from configuration. withAI controls
// whether the model client is created; read-only commands skip it so they
// work without an API key.
func newApp(withAI bool) (*app, error) {
	cfg := config.Get()

	articleStore, err := store.NewStore(cfg.Store.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to open article store: %w", err)
	}

	interactionStore, err := interactions.NewStore(cfg.Store.Directory)
	if err != nil {
		articleStore.Close()
		return nil, fmt.Errorf("failed to open interaction store: %w", err)
	}

	a := &app{
		cfg:          cfg,
		store:        articleStore,
		interactions: interactionStore,
	}
	logger.Debug("Stores opened", "directory", cfg.Store.Directory)

	recommender, err := recommend.NewRecommender(interactionStore, interactionStore, recommend.Options{
		ContentWeight:       cfg.Recommend.ContentWeight,
		CollaborativeWeight: cfg.Recommend.CollaborativeWeight,
		Neighbors:           cfg.Recommend.Neighbors,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("invalid recommender configuration: %w", err)
	}
	a.service = services.NewService(articleStore, interactionStore, recommender)

	if withAI {
		llmClient, err := llm.NewClient(cfg.AI.Gemini.Model)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize AI client: %w", err)
		}
		a.llmClient = llmClient

		classifier := classify.NewClassifier(llmClient, classify.Options{
			Epsilon:       cfg.Classify.Epsilon,
			PivotLanguage: cfg.Classify.PivotLanguage,
			Models:        cfg.Classify.Models,
		})
		summarizer := summarize.NewSummarizer(llmClient, summarize.Options{
			TargetWords: cfg.Summary.TargetWords,
			MaxChars:    cfg.Summary.MaxChars,
			ChunkChars:  cfg.Summary.ChunkChars,
		})
		normalizer := normalize.NewNormalizer(cfg.Classify.PivotLanguage)

		a.orchestrator = pipeline.NewOrchestrator(articleStore, normalizer, classifier, summarizer, pipeline.Options{
			Workers:       cfg.Pipeline.Workers,
			RetryAttempts: cfg.Pipeline.RetryAttempts,
			RetryBackoff:  cfg.Pipeline.RetryBackoffDuration(),
		})
	}

	return a, nil
}

// Close releases the stores and the model client.
func (a *app) Close() {
	if a.llmClient != nil {
		a.llmClient.Close()
	}
	if a.interactions != nil {
		a.interactions.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}
