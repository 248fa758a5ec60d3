package matching

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/corpus"
	"github.com/spigell/skillmatch/internal/embedding"
	"github.com/spigell/skillmatch/internal/errs"
	"github.com/spigell/skillmatch/internal/rerank"
	"github.com/spigell/skillmatch/internal/skills"
	"github.com/spigell/skillmatch/internal/vectorindex"
)

const (
	StrategyOracle  = "oracle"
	StrategyCosine  = "cosine"
	StrategyOverlap = "overlap"

	DefaultEmbedTimeout = 10 * time.Second
)

// Strategy ranks the corpus for one candidate profile.
type Strategy interface {
	Name() string
	Rank(ctx context.Context, log *zap.Logger, profile skills.Profile, width int) ([]MatchResult, error)
}

// Deps are the long-lived handles strategies are built from.
type Deps struct {
	Store     corpus.Store
	Embedder  embedding.Provider
	Index     *vectorindex.Index
	Reranker  *rerank.Reranker
	Assembler *Assembler
	Tracer    trace.Tracer

	EmbedTimeout  time.Duration
	Prefilter     int
	SnippetLength int
}

// NewStrategy returns the named strategy or an error for unknown names.
func NewStrategy(name string, deps Deps) (Strategy, error) {
	if deps.EmbedTimeout <= 0 {
		deps.EmbedTimeout = DefaultEmbedTimeout
	}
	if deps.Assembler == nil {
		deps.Assembler = NewAssembler("", nil)
	}
	if deps.Tracer == nil {
		deps.Tracer = defaultTracer()
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyOracle:
		if deps.Reranker == nil {
			return nil, fmt.Errorf("strategy %q requires an oracle", StrategyOracle)
		}
		if err := deps.requireRetrieval(); err != nil {
			return nil, err
		}
		return &oracleStrategy{retriever: retriever{deps: deps}}, nil
	case StrategyCosine:
		if err := deps.requireRetrieval(); err != nil {
			return nil, err
		}
		return &cosineStrategy{retriever: retriever{deps: deps}}, nil
	case StrategyOverlap:
		if deps.Store == nil {
			return nil, fmt.Errorf("strategy %q requires a corpus store", StrategyOverlap)
		}
		return &overlapStrategy{deps: deps}, nil
	default:
		return nil, fmt.Errorf("unknown matching strategy %q", name)
	}
}

func (d Deps) requireRetrieval() error {
	if d.Store == nil || d.Embedder == nil || d.Index == nil {
		return fmt.Errorf("embedding strategies require a store, an embedder and an index")
	}
	return nil
}

type retriever struct {
	deps Deps
}

// retrieve embeds the profile and searches the corpus. Embedding failures
// are logged and yield no candidates; corpus failures are returned.
func (r retriever) retrieve(ctx context.Context, log *zap.Logger, profile skills.Profile) ([]vectorindex.Scored, error) {
	query, ok := r.embed(ctx, log, profile)
	if !ok {
		return nil, nil
	}

	ctx, span := r.deps.Tracer.Start(ctx, "matching.retrieve")
	defer span.End()

	postings, err := r.candidates(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "corpus read failed")
		return nil, errs.InternalErr("reading corpus", err)
	}

	retrieved := r.deps.Index.Search(query, postings)
	span.SetAttributes(
		attribute.Int("corpus.postings", len(postings)),
		attribute.Int("retrieval.results", len(retrieved)),
	)

	log.Debug("retrieval finished",
		zap.Int("postings", len(postings)),
		zap.Int("retrieved", len(retrieved)),
	)

	return retrieved, nil
}

func (r retriever) embed(ctx context.Context, log *zap.Logger, profile skills.Profile) ([]float32, bool) {
	ctx, span := r.deps.Tracer.Start(ctx, "matching.embed")
	defer span.End()

	embedCtx, cancel := context.WithTimeout(ctx, r.deps.EmbedTimeout)
	defer cancel()

	query, err := r.deps.Embedder.Embed(embedCtx, profile.String())
	if err != nil {
		span.RecordError(err)
		log.Warn("embedding candidate skills failed", zap.Error(errs.ExternalErr("embedding profile", err)))
		return nil, false
	}

	if dim := r.deps.Embedder.Dimension(); dim > 0 && len(query) != dim {
		log.Warn("embedding provider returned unexpected dimension",
			zap.Int("got", len(query)),
			zap.Int("want", dim),
		)
		return nil, false
	}

	return query, true
}

func (r retriever) candidates(ctx context.Context, query []float32) ([]*corpus.JobPosting, error) {
	if searcher, ok := r.deps.Store.(corpus.NearestSearcher); ok && r.deps.Prefilter > 0 {
		return searcher.Nearest(ctx, query, r.deps.Prefilter)
	}
	return r.deps.Store.WithEmbedding(ctx)
}

// oracleStrategy: retrieval proposes, the oracle disposes.
type oracleStrategy struct {
	retriever
}

func (s *oracleStrategy) Name() string { return StrategyOracle }

func (s *oracleStrategy) Rank(ctx context.Context, log *zap.Logger, profile skills.Profile, width int) ([]MatchResult, error) {
	retrieved, err := s.retrieve(ctx, log, profile)
	if err != nil {
		return nil, err
	}
	if len(retrieved) == 0 {
		return []MatchResult{}, nil
	}

	rerankCtx, span := s.deps.Tracer.Start(ctx, "matching.rerank")
	reasons := s.deps.Reranker.Rerank(rerankCtx, profile.Skills(), rerank.Snippets(retrieved, s.deps.SnippetLength))
	span.SetAttributes(attribute.Int("rerank.endorsed", len(reasons)))
	span.End()

	if len(reasons) == 0 {
		log.Info("oracle endorsed no retrieved postings", zap.Int("retrieved", len(retrieved)))
		return []MatchResult{}, nil
	}

	return s.deps.Assembler.Assemble(ctx, log, profile, retrieved, reasons, width)
}

// cosineStrategy keeps every retrieved posting and explains it locally.
type cosineStrategy struct {
	retriever
}

func (s *cosineStrategy) Name() string { return StrategyCosine }

func (s *cosineStrategy) Rank(ctx context.Context, log *zap.Logger, profile skills.Profile, width int) ([]MatchResult, error) {
	retrieved, err := s.retrieve(ctx, log, profile)
	if err != nil {
		return nil, err
	}

	return s.deps.Assembler.Assemble(ctx, log, profile, retrieved, nil, width,
		Unendorsed("cosine strategy ranks without an oracle", explainer(profile)))
}

// overlapStrategy scores postings by the share of candidate skills they list.
type overlapStrategy struct {
	deps Deps
}

func (s *overlapStrategy) Name() string { return StrategyOverlap }

func (s *overlapStrategy) Rank(ctx context.Context, log *zap.Logger, profile skills.Profile, width int) ([]MatchResult, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "matching.overlap")
	defer span.End()

	postings, err := s.deps.Store.All(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, errs.InternalErr("reading corpus", err)
	}

	scored := make([]vectorindex.Scored, 0)
	for _, posting := range postings {
		shared := len(profile.Intersect(posting.Skills))
		if shared == 0 {
			continue
		}
		scored = append(scored, vectorindex.Scored{
			Score:   float64(shared) / float64(profile.Len()),
			Posting: posting,
		})
	}

	slices.SortStableFunc(scored, func(a, b vectorindex.Scored) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if limit := s.retrievalWidth(); len(scored) > limit {
		scored = scored[:limit]
	}

	log.Debug("overlap scoring finished",
		zap.Int("postings", len(postings)),
		zap.Int("scored", len(scored)),
	)

	return s.deps.Assembler.Assemble(ctx, log, profile, scored, nil, width,
		Unendorsed("overlap strategy ranks without an oracle", explainer(profile)))
}

func (s *overlapStrategy) retrievalWidth() int {
	if s.deps.Index != nil {
		return s.deps.Index.Width()
	}
	return vectorindex.DefaultWidth
}

func localReason(profile skills.Profile, posting *corpus.JobPosting, score float64) string {
	if shared := profile.Intersect(posting.Skills); len(shared) > 0 {
		return "shares skills: " + strings.Join(shared, ", ")
	}
	return fmt.Sprintf("semantic similarity %.2f", score)
}

func explainer(profile skills.Profile) ExplainFunc {
	return func(posting *corpus.JobPosting, score float64) string {
		return localReason(profile, posting, score)
	}
}
