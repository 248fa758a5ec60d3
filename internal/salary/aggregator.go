package salary

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/corpus"
	"github.com/spigell/skillmatch/internal/errs"
	"github.com/spigell/skillmatch/internal/logger"
	"github.com/spigell/skillmatch/internal/textparse"
)

const DefaultMaxTitles = 3

type titleReader interface {
	ByTitle(ctx context.Context, title string) ([]*corpus.JobPosting, error)
}

type Aggregator struct {
	store     titleReader
	maxTitles int
	logger    *zap.Logger
}

func NewAggregator(store titleReader, maxTitles int, log *zap.Logger) *Aggregator {
	if maxTitles <= 0 {
		maxTitles = DefaultMaxTitles
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{store: store, maxTitles: maxTitles, logger: log}
}

// Trend builds series for the first distinct titles, in the order given.
// Rows with unparsable experience or salary text are skipped.
func (a *Aggregator) Trend(ctx context.Context, titles []string) (Trend, error) {
	trend := make(Trend)

	for _, title := range DistinctTitles(titles, a.maxTitles) {
		postings, err := a.store.ByTitle(ctx, title)
		if err != nil {
			return nil, errs.InternalErr("reading postings by title", err)
		}

		trend[title] = a.aggregate(title, postings)
	}

	return trend, nil
}

func (a *Aggregator) aggregate(title string, postings []*corpus.JobPosting) TitleTrend {
	progression := newMeanAccumulator()
	location := newMeanAccumulator()
	skipped := 0

	for _, posting := range postings {
		if posting == nil {
			continue
		}

		mid, ok := textparse.SalaryMidpoint(posting.SalaryRange)
		if !ok {
			skipped++
			a.logger.Debug("skipping posting with unparsable salary",
				logger.JobID(posting.ID),
				zap.String("salary_range", posting.SalaryRange),
			)
			continue
		}

		if years, ok := textparse.ExperienceMidpoint(posting.Experience); ok {
			progression.add(strconv.FormatFloat(years, 'f', -1, 64), mid)
		} else {
			a.logger.Debug("posting has unparsable experience",
				logger.JobID(posting.ID),
				zap.String("experience", posting.Experience),
			)
		}

		if key := LocationKey(posting.Location); key != "" {
			location.add(key, mid)
		}
	}

	a.logger.Debug("aggregated salary trend",
		zap.String("title", title),
		zap.Int("postings", len(postings)),
		zap.Int("skipped", skipped),
	)

	series := TitleTrend{
		Progression: make(ProgressionSeries),
		Location:    LocationSeries(location.means()),
	}
	for key, mean := range progression.means() {
		years, err := strconv.ParseFloat(key, 64)
		if err != nil {
			continue
		}
		series.Progression[years] = mean
	}

	return series
}

// DistinctTitles returns up to limit non-blank titles by first appearance.
// A limit <= 0 means no cap.
func DistinctTitles(titles []string, limit int) []string {
	seen := make(map[string]struct{}, len(titles))
	var out []string
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, title)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
