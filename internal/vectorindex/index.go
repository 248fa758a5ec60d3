package vectorindex

import (
	"slices"

	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/corpus"
	"github.com/spigell/skillmatch/internal/errs"
	"github.com/spigell/skillmatch/internal/logger"
)

const (
	DefaultThreshold = 0.3
	DefaultWidth     = 100
)

// Scored is a retrieval candidate.
type Scored struct {
	Score   float64
	Posting *corpus.JobPosting
}

// Index retrieves the postings most similar to a query.
type Index struct {
	threshold float64
	width     int
	logger    *zap.Logger
}

func New(threshold float64, width int, log *zap.Logger) *Index {
	if width <= 0 {
		width = DefaultWidth
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Index{threshold: threshold, width: width, logger: log}
}

func (i *Index) Width() int {
	return i.width
}

// Search keeps postings scoring strictly above the threshold, best first,
// truncated to the index width. Equal scores keep the input order. Postings
// without an embedding are not candidates; postings with a malformed one
// are skipped with a warning.
func (i *Index) Search(query []float32, postings []*corpus.JobPosting) []Scored {
	if len(query) == 0 {
		i.logger.Warn("empty query vector, nothing to search")
		return nil
	}

	scored := make([]Scored, 0, len(postings))
	skipped := 0

	for _, posting := range postings {
		if !posting.HasEmbedding() {
			continue
		}

		if err := corpus.ValidateEmbedding(posting.Embedding, len(query)); err != nil {
			skipped++
			i.logger.Warn("skipping posting with invalid embedding",
				logger.JobID(posting.ID),
				zap.Error(errs.UpstreamErr("validating embedding", err)),
			)
			continue
		}

		score, err := Cosine(query, posting.Embedding)
		if err != nil {
			skipped++
			i.logger.Warn("skipping posting, similarity failed",
				logger.JobID(posting.ID),
				zap.Error(errs.UpstreamErr("scoring posting", err)),
			)
			continue
		}

		if score > i.threshold {
			scored = append(scored, Scored{Score: score, Posting: posting})
		}
	}

	slices.SortStableFunc(scored, func(a, b Scored) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if len(scored) > i.width {
		scored = scored[:i.width]
	}

	i.logger.Debug("vector search finished",
		zap.Int("postings", len(postings)),
		zap.Int("skipped", skipped),
		zap.Int("retrieved", len(scored)),
	)

	return scored
}
