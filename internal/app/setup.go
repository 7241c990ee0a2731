package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/vocabvoyage/vocabvoyage/internal/capability"
	"github.com/vocabvoyage/vocabvoyage/internal/config"
	"github.com/vocabvoyage/vocabvoyage/internal/dialog"
	"github.com/vocabvoyage/vocabvoyage/internal/knowledge"
	"github.com/vocabvoyage/vocabvoyage/internal/llm"
	"github.com/vocabvoyage/vocabvoyage/internal/log"
	"github.com/vocabvoyage/vocabvoyage/internal/store"
)

// Default proactive rate limit for model calls: sustained one call per
// second with a small burst, shared by routing, generation and capability
// invocations.
const (
	defaultRateLimit = rate.Limit(1)
	defaultRateBurst = 5
)

// Setup initializes every component from configuration. The caller owns the
// returned App and must Close it.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if err := checkRequiredEnv(); err != nil {
		return nil, err
	}

	st, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		_ = st.Close()
		return nil, errors.New("initializing genkit with googleai provider")
	}

	client, err := llm.New(llm.Config{
		Genkit:    g,
		ModelName: "googleai/" + cfg.ModelName,
		Limiter:   rate.NewLimiter(defaultRateLimit, defaultRateBurst),
		Logger:    logger,
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("creating model client: %w", err)
	}

	a := &App{
		Config: cfg,
		Logger: logger,
		Genkit: g,
		Store:  st,
	}

	var searcher capability.Searcher = knowledge.NoRetriever{}
	if cfg.Retrieval.Enabled {
		if err := setupKnowledge(ctx, a, g, cfg, logger); err != nil {
			_ = st.Close()
			return nil, err
		}
		searcher = knowledge.NewRetriever(a.Knowledge)
	}

	registry := capability.New(client, searcher, cfg.Retrieval.TopK)
	graph := dialog.NewGraph(
		dialog.NewRouter(client, registry, logger),
		dialog.NewExecutor(registry),
		dialog.NewResponder(client),
		logger,
	)
	a.Engine = dialog.NewEngine(st, graph, logger)

	logger.Info("application ready",
		"store_mode", cfg.Store.Mode,
		"model", cfg.ModelName,
		"retrieval", cfg.Retrieval.Enabled)
	return a, nil
}

// OpenStore selects the persistence mode fixed for the process lifetime.
// It needs no model credentials; store-only commands use it instead of the
// full Setup.
func OpenStore(ctx context.Context, cfg *config.Config, logger log.Logger) (Store, error) {
	switch cfg.Store.Mode {
	case config.StoreModeLocal:
		st, err := store.Open(cfg.Store.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("opening local store: %w", err)
		}
		return st, nil

	case config.StoreModeRemote:
		blob := store.NewHTTPBlob(cfg.Store.RemoteEndpoint, cfg.Store.RemoteToken, nil)
		m, err := store.OpenMirror(ctx, store.MirrorConfig{
			Blob:       blob,
			PushOnRead: cfg.Store.PushOnRead,
			RetryWait:  cfg.Store.PushRetryWait,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("opening mirrored store: %w", err)
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unknown store mode %q", cfg.Store.Mode)
	}
}

// setupKnowledge connects the PostgreSQL vector store and applies its
// schema.
func setupKnowledge(ctx context.Context, a *App, g *genkit.Genkit, cfg *config.Config, logger log.Logger) error {
	poolCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(poolCtx, cfg.PostgresDSN())
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}

	embedder, err := llm.NewEmbedder(g, cfg.EmbedderModel)
	if err != nil {
		pool.Close()
		return fmt.Errorf("resolving embedder: %w", err)
	}

	ks, err := knowledge.New(pool, embedder, cfg.Retrieval.EmbeddingDim, logger)
	if err != nil {
		pool.Close()
		return fmt.Errorf("creating knowledge store: %w", err)
	}
	if err := ks.EnsureSchema(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("applying knowledge schema: %w", err)
	}

	a.Knowledge = ks
	a.pool = pool
	return nil
}

// checkRequiredEnv verifies the Google AI credential is present before any
// model call can fail obscurely.
func checkRequiredEnv() error {
	if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
		return errors.New("GEMINI_API_KEY (or GOOGLE_API_KEY) is required")
	}
	return nil
}
