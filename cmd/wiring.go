package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/ai"
	"github.com/spigell/skillmatch/internal/ai/gemini"
	"github.com/spigell/skillmatch/internal/ai/openai"
	"github.com/spigell/skillmatch/internal/corpus"
	"github.com/spigell/skillmatch/internal/corpus/pgstore"
	"github.com/spigell/skillmatch/internal/embedding"
	"github.com/spigell/skillmatch/internal/matching"
	"github.com/spigell/skillmatch/internal/rerank"
	"github.com/spigell/skillmatch/internal/salary"
	"github.com/spigell/skillmatch/internal/secrets"
	"github.com/spigell/skillmatch/internal/vectorindex"
)

const (
	providerGemini = "gemini"
	providerOpenAI = "openai"
)

// closers are run in reverse order on shutdown.
type closers []func()

func (c closers) Close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func openStore(ctx context.Context, cfg *CorpusConfig, log *zap.Logger) (corpus.Store, func(), error) {
	switch strings.ToLower(cfg.Source) {
	case "", "file":
		store, err := corpus.LoadFile(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		log.Info("corpus loaded from file", zap.String("file", cfg.File), zap.Int("postings", store.Len()))
		return store, func() {}, nil
	case "postgres":
		if cfg.Postgres == nil {
			return nil, nil, errors.New("corpus.postgres section is required for the postgres source")
		}
		dsn, err := secrets.Load(secrets.Source{
			Name: "postgres dsn",
			File: cfg.Postgres.DSNFile,
			Env:  "SKILLMATCH_DB_DSN",
		})
		if err != nil {
			return nil, nil, err
		}
		db, err := pgstore.Open(ctx, dsn, cfg.Postgres.MaxOpenConns)
		if err != nil {
			return nil, nil, err
		}
		log.Info("corpus connected to postgres", zap.String("table", cfg.Postgres.Table))
		return pgstore.New(db, cfg.Postgres.Table), func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown corpus source %q", cfg.Source)
	}
}

func newEmbedder(ctx context.Context, cfg *EmbeddingConfig, log *zap.Logger) (embedding.Provider, func(), error) {
	var (
		provider embedding.Provider
		model    = cfg.Model
	)

	switch strings.ToLower(cfg.Provider) {
	case providerGemini:
		key, err := loadKey(providerGemini, cfg.Gemini.apiKeyFile(), "GEMINI_API_KEY")
		if err != nil {
			return nil, nil, err
		}
		client, err := gemini.NewClient(ctx, key)
		if err != nil {
			return nil, nil, err
		}
		provider = gemini.NewEmbedder(client, model, cfg.Dimensions)
	case "", providerOpenAI:
		var baseURL string
		if cfg.OpenAI != nil {
			baseURL = cfg.OpenAI.BaseURL
		}
		key, err := loadOptionalKey(providerOpenAI, cfg.OpenAI.apiKeyFile(), "OPENAI_API_KEY", baseURL)
		if err != nil {
			return nil, nil, err
		}
		client, err := openai.NewClient(openai.ClientOptions{APIKey: key, BaseURL: baseURL})
		if err != nil {
			return nil, nil, err
		}
		provider = openai.NewEmbedder(client, model, cfg.Dimensions)
	default:
		return nil, nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	if cfg.Cache == nil || !cfg.Cache.Enabled {
		return provider, func() {}, nil
	}

	password := ""
	if cfg.Cache.PasswordFile != "" {
		var err error
		password, err = secrets.Load(secrets.Source{Name: "redis password", File: cfg.Cache.PasswordFile})
		if err != nil {
			return nil, nil, err
		}
	}

	kv := embedding.NewRedisKV(embedding.RedisOptions{
		Addr:     cfg.Cache.Addr,
		Password: password,
		DB:       cfg.Cache.DB,
	})
	if err := kv.Ping(ctx); err != nil {
		// The cache is bypassed on errors, so an unreachable Redis only costs latency.
		log.Warn("embedding cache is unreachable", zap.String("addr", cfg.Cache.Addr), zap.Error(err))
	}

	cacheModel := model
	if cacheModel == "" {
		cacheModel = cfg.Provider
	}
	return embedding.NewCached(provider, kv, cacheModel, cfg.Cache.TTL, log), func() { kv.Close() }, nil
}

func newOracle(ctx context.Context, cfg *OracleConfig, log *zap.Logger) (ai.Oracle, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", providerGemini:
		gcfg := cfg.Gemini
		if gcfg == nil {
			gcfg = &OracleGeminiConfig{}
		}
		key, err := loadKey(providerGemini, gcfg.APIKeyFile, "GEMINI_API_KEY")
		if err != nil {
			return nil, err
		}
		client, err := gemini.NewClient(ctx, key)
		if err != nil {
			return nil, err
		}
		return gemini.NewGenerator(client, gemini.Options{
			Model:        gcfg.Model,
			MaxRetries:   gcfg.MaxRetries,
			MaxLogLength: cfg.MaxLogLength,
		}, log), nil
	case providerOpenAI:
		ocfg := cfg.OpenAI
		if ocfg == nil {
			ocfg = &OracleOpenAIConfig{}
		}
		key, err := loadOptionalKey(providerOpenAI, ocfg.APIKeyFile, "OPENAI_API_KEY", ocfg.BaseURL)
		if err != nil {
			return nil, err
		}
		client, err := openai.NewClient(openai.ClientOptions{APIKey: key, BaseURL: ocfg.BaseURL})
		if err != nil {
			return nil, err
		}
		return openai.NewChat(client, openai.ChatOptions{
			Model:        ocfg.Model,
			Temperature:  ocfg.Temperature,
			MaxLogLength: cfg.MaxLogLength,
		}, log), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}

type engineParts struct {
	store  corpus.Store
	oracle ai.Oracle
	engine *matching.Engine
}

// buildEngine wires the matching engine. The oracle is created only when the
// strategy or the caller needs it.
func buildEngine(ctx context.Context, cfg *Config, strategy string, needOracle bool, log *zap.Logger) (*engineParts, closers, error) {
	var cleanup closers

	store, closeStore, err := openStore(ctx, cfg.Corpus, log)
	if err != nil {
		return nil, cleanup, fmt.Errorf("opening corpus: %w", err)
	}
	cleanup = append(cleanup, closeStore)

	parts := &engineParts{store: store}
	deps := matching.Deps{
		Store:         store,
		Assembler:     matching.NewAssembler(cfg.Matching.ExcludeFile, log),
		EmbedTimeout:  cfg.Embedding.Timeout,
		SnippetLength: cfg.Matching.SnippetLength,
	}
	if cfg.Corpus.Postgres != nil {
		deps.Prefilter = cfg.Corpus.Postgres.Prefilter
	}

	if strategy != matching.StrategyOverlap {
		embedder, closeEmbedder, err := newEmbedder(ctx, cfg.Embedding, log)
		if err != nil {
			return nil, cleanup, fmt.Errorf("creating embedder: %w", err)
		}
		cleanup = append(cleanup, closeEmbedder)
		deps.Embedder = embedder
		deps.Index = vectorindex.New(cfg.Matching.Threshold, cfg.Matching.RetrievalWidth, log)
	}

	if needOracle || strategy == matching.StrategyOracle || strategy == "" {
		oracle, err := newOracle(ctx, cfg.Oracle, log)
		if err != nil {
			return nil, cleanup, fmt.Errorf("creating oracle: %w", err)
		}
		parts.oracle = oracle
		deps.Reranker = rerank.New(oracle, rerank.Options{
			Limit:        cfg.Matching.RerankLimit,
			Timeout:      cfg.Oracle.Timeout,
			MaxLogLength: cfg.Oracle.MaxLogLength,
		}, log)
	}

	s, err := matching.NewStrategy(strategy, deps)
	if err != nil {
		return nil, cleanup, err
	}

	aggregator := salary.NewAggregator(store, cfg.Salary.MaxTitles, log)
	parts.engine = matching.NewEngine(s, aggregator, log)

	return parts, cleanup, nil
}

func (c *EmbeddingGeminiConfig) apiKeyFile() string {
	if c == nil {
		return ""
	}
	return c.APIKeyFile
}

func (c *EmbeddingOpenAIConfig) apiKeyFile() string {
	if c == nil {
		return ""
	}
	return c.APIKeyFile
}

func loadKey(provider, file, env string) (string, error) {
	return secrets.Load(secrets.Source{
		Name: provider + " api key",
		File: file,
		Env:  env,
	})
}

// loadOptionalKey tolerates a missing key when a custom base url is set,
// since local OpenAI-compatible servers usually run without auth.
func loadOptionalKey(provider, file, env, baseURL string) (string, error) {
	key, err := loadKey(provider, file, env)
	if err != nil && strings.TrimSpace(baseURL) == "" {
		return "", err
	}
	return key, nil
}
