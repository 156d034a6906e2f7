package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/factcheck/internal/events"
	"github.com/sells-group/factcheck/internal/pipeline"
	"github.com/sells-group/factcheck/internal/resilience"
	"github.com/sells-group/factcheck/internal/search"
	"github.com/sells-group/factcheck/internal/store"
	anthropicpkg "github.com/sells-group/factcheck/pkg/anthropic"
	"github.com/sells-group/factcheck/pkg/jina"
	"github.com/sells-group/factcheck/pkg/tavily"
)

// pipelineEnv holds the initialized store, clients, and searcher shared by
// the check/batch/serve commands.
type pipelineEnv struct {
	Store    store.Store
	AI       anthropicpkg.Client
	Searcher search.Searcher
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// NewPipeline builds a pipeline streaming to the given sink.
func (pe *pipelineEnv) NewPipeline(sink events.Sink) *pipeline.Pipeline {
	return pipeline.New(*cfg, pe.Store, pe.AI, pe.Searcher, sink)
}

// initStore opens the configured run store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "init postgres store")
		}
		return st, nil
	case "sqlite", "":
		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, eris.Wrap(err, "init sqlite store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initSearcher builds the evidence-retrieval chain. Each configured provider
// is rate limited and circuit protected individually, so a tripped primary
// still falls through to the next provider.
func initSearcher() (search.Searcher, error) {
	guard := func(s search.Searcher) search.Searcher {
		limited := search.NewRateLimited(s, cfg.Search.QPS, cfg.Search.Burst)
		return search.NewGuarded(limited, resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.Search.FailureThreshold,
			ResetTimeout:     time.Duration(cfg.Search.ResetTimeoutSecs) * time.Second,
		})
	}

	var providers []search.Searcher
	if cfg.Tavily.Key != "" {
		client := tavily.NewClient(cfg.Tavily.Key, tavily.WithBaseURL(cfg.Tavily.BaseURL))
		providers = append(providers, guard(search.NewTavilySearcher(client, cfg.Pipeline.ResultsPerQuery)))
	}
	if cfg.Jina.Key != "" {
		client := jina.NewClient(cfg.Jina.Key, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
		providers = append(providers, guard(search.NewJinaSearcher(client, cfg.Pipeline.ResultsPerQuery)))
	}
	if len(providers) == 0 {
		return nil, eris.New("no search provider configured, set FACTCHECK_TAVILY_KEY or FACTCHECK_JINA_KEY")
	}
	zap.L().Info("search providers configured", zap.Int("count", len(providers)))
	return search.NewChain(providers...), nil
}

// initEnv validates config for the given mode and sets up store, AI client,
// and search chain. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	searcher, err := initSearcher()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &pipelineEnv{
		Store:    st,
		AI:       anthropicpkg.NewClient(cfg.Anthropic.Key),
		Searcher: searcher,
	}, nil
}
