// Package matching turns a candidate skill set into a ranked, explained
// shortlist of job postings.
package matching

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/logger"
	"github.com/spigell/skillmatch/internal/salary"
	"github.com/spigell/skillmatch/internal/skills"
)

const tracerName = "github.com/spigell/skillmatch/internal/matching"

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// Engine is the matching API boundary. It is safe for concurrent use.
type Engine struct {
	strategy   Strategy
	aggregator *salary.Aggregator
	tracer     trace.Tracer
	logger     *zap.Logger
}

func NewEngine(strategy Strategy, aggregator *salary.Aggregator, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		strategy:   strategy,
		aggregator: aggregator,
		tracer:     defaultTracer(),
		logger:     log,
	}
}

func (e *Engine) Strategy() string {
	return e.strategy.Name()
}

// Match ranks the corpus for the given skills. An empty skill set is valid
// input and yields an empty list. Only corpus failures return an error.
func (e *Engine) Match(ctx context.Context, candidateSkills []string, width int) ([]MatchResult, error) {
	profile := skills.NewProfile(candidateSkills...)
	requestID := uuid.NewString()
	log := logger.WithRequest(e.logger, requestID, e.strategy.Name())

	if profile.Empty() {
		log.Info("empty skill set, nothing to match")
		return []MatchResult{}, nil
	}

	ctx, span := e.tracer.Start(ctx, "matching.match", trace.WithAttributes(
		attribute.String("request.id", requestID),
		attribute.String("matching.strategy", e.strategy.Name()),
		attribute.Int("profile.skills", profile.Len()),
	))
	defer span.End()

	started := time.Now()
	log.Info("matching started",
		zap.Strings("skills", profile.Skills()),
		zap.Int("width", width),
	)

	results, err := e.strategy.Rank(ctx, log, profile, width)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "match failed")
		log.Error("matching failed", zap.Error(err))
		return nil, err
	}

	if results == nil {
		results = []MatchResult{}
	}

	span.SetAttributes(attribute.Int("match.results", len(results)))
	log.Info("matching finished",
		zap.Int("results", len(results)),
		zap.Duration("took", time.Since(started)),
	)

	return results, nil
}

// SalaryTrend aggregates salary series for the titles in results.
func (e *Engine) SalaryTrend(ctx context.Context, results []MatchResult) (salary.Trend, error) {
	ctx, span := e.tracer.Start(ctx, "matching.salary_trend")
	defer span.End()

	trend, err := e.aggregator.Trend(ctx, Titles(results))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "salary trend failed")
		return nil, err
	}
	return trend, nil
}
