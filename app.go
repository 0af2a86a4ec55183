package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"stylefinder/internal/catalog"
	"stylefinder/internal/config"
	"stylefinder/internal/embedding"
	embedopenai "stylefinder/internal/embedding/openai"
	"stylefinder/internal/embedding/tfidf"
	"stylefinder/internal/expander"
	"stylefinder/internal/llm"
	llmopenai "stylefinder/internal/llm/openai"
	"stylefinder/internal/logging"
	"stylefinder/internal/repositories"
	"stylefinder/internal/services"
	"stylefinder/internal/vectorstore"
	"stylefinder/internal/vectorstore/memory"
	"stylefinder/internal/vectorstore/qdrant"
	"stylefinder/pkg/rabbitmq"
)

// app holds the wired collaborators of one CLI invocation.
type app struct {
	cfg      *config.AppConfig
	repo     *repositories.GORMProductRepository
	products *services.ProductService
	search   *services.SearchService
	mq       *rabbitmq.Client
	closers  []func() error
}

// newApp connects the catalog store, the vector index and, when enabled,
// the event broker. The chat generator is optional: without an API key
// every query is searched as typed.
func newApp(cfg *config.AppConfig, fs afero.Fs) (*app, error) {
	a := &app{cfg: cfg}

	db, err := repositories.OpenDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	repo := repositories.NewGORMProductRepository(db)
	a.repo = repo
	adapter := catalog.NewAdapter(repo, catalog.NewFSAssetChecker(fs, cfg.Assets.Dir))

	embedder, err := newEmbedder(cfg.Embedder)
	if err != nil {
		a.Close()
		return nil, err
	}
	index := newIndex(cfg.VectorStore, embedder)
	indexer := vectorstore.NewIndexer(index, embedder)

	if cfg.RabbitMQ.Enabled {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.mq = mq
		a.closers = append(a.closers, mq.Close)
	}

	exp := expander.New(newGenerator(cfg.LLM), expander.Config{
		Timeout:         cfg.LLM.Timeout,
		BreakerFailures: cfg.LLM.BreakerFailures,
		BreakerCooldown: cfg.LLM.BreakerCooldown,
	})

	a.products = services.NewProductService(repo, adapter, indexer)
	a.search = services.NewSearchService(exp, vectorstore.NewClient(index), a.publisher(), services.SearchOptions{
		DefaultResults: cfg.Search.DefaultResults,
		Concurrency:    cfg.Search.Concurrency,
	})
	return a, nil
}

// publisher returns a nil interface when no broker is configured.
func (a *app) publisher() services.EventPublisher {
	if a.mq == nil {
		return nil
	}
	return a.mq
}

// trends builds a TrendService over the current catalog.
func (a *app) trends(ctx context.Context) (*services.TrendService, error) {
	snap, err := a.products.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	params, err := services.NewTrendParams(a.cfg.Trends)
	if err != nil {
		return nil, err
	}
	return services.NewTrendService(snap, params, a.publisher())
}

// inProcessIndex reports whether the index lives only as long as the process.
func (a *app) inProcessIndex() bool {
	return a.cfg.VectorStore.Type != "qdrant"
}

// Close releases every connection in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newEmbedder(cfg config.EmbedderConfig) (embedding.Embedder, error) {
	switch cfg.Type {
	case "openai":
		client, err := embedopenai.NewClient(embedopenai.Config{
			BaseURL:           cfg.BaseURL,
			APIKeyEnv:         cfg.APIKeyEnv,
			Model:             cfg.Model,
			Timeout:           cfg.Timeout,
			MaxRetries:        cfg.MaxRetries,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		return client, nil
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	default:
		return nil, fmt.Errorf("unknown embedder type: %s", cfg.Type)
	}
}

func newIndex(cfg config.VectorStoreConfig, embedder embedding.Embedder) vectorstore.Index {
	if cfg.Type == "qdrant" {
		return qdrant.NewIndex(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Timeout:    cfg.Qdrant.Timeout,
		}, embedder)
	}
	return memory.NewIndex(embedder)
}

func newGenerator(cfg config.LLMConfig) llm.Generator {
	client, err := llmopenai.NewClient(llmopenai.Config{
		BaseURL:   cfg.BaseURL,
		APIKeyEnv: cfg.APIKeyEnv,
		Model:     cfg.Model,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		logging.Warn().Err(err).Msg("term expansion disabled, queries are searched as typed")
		return nil
	}
	return client
}
