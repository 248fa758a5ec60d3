package matching

import (
	"context"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/corpus"
	"github.com/spigell/skillmatch/internal/filtering"
	"github.com/spigell/skillmatch/internal/skills"
	"github.com/spigell/skillmatch/internal/vectorindex"
)

// MatchResult is one endorsed, skill-annotated posting returned to the caller.
type MatchResult struct {
	JobID         int64    `json:"jobId"`
	Title         string   `json:"jobTitle"`
	Company       string   `json:"company"`
	Description   string   `json:"jobDescription"`
	Experience    string   `json:"experience"`
	SalaryRange   string   `json:"salaryRange"`
	Location      string   `json:"location"`
	Skills        []string `json:"skills"`
	MatchScore    float64  `json:"matchScore"`
	MatchedSkills []string `json:"matchedSkills"`
	MatchReason   string   `json:"matchReason"`
}

// Assembler merges retrieval output with oracle judgments.
type Assembler struct {
	excludeFile string
	logger      *zap.Logger
}

func NewAssembler(excludeFile string, log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{excludeFile: excludeFile, logger: log}
}

// ExplainFunc produces a reason for a posting kept without an oracle judgment.
type ExplainFunc func(posting *corpus.JobPosting, score float64) string

type assembleOptions struct {
	unendorsed string
	explain    ExplainFunc
}

// AssembleOption adjusts a single Assemble call.
type AssembleOption func(*assembleOptions)

// Unendorsed disables the oracle endorsement step for strategies that rank
// without an oracle. explain supplies each kept posting's reason.
func Unendorsed(reason string, explain ExplainFunc) AssembleOption {
	return func(o *assembleOptions) {
		o.unendorsed = reason
		o.explain = explain
	}
}

// Assemble keeps retrieved postings the oracle endorsed, in retrieval order,
// truncated to width. Empty reasons yield an empty, non-nil list unless the
// endorsement step is disabled with Unendorsed.
func (a *Assembler) Assemble(ctx context.Context, log *zap.Logger, profile skills.Profile, retrieved []vectorindex.Scored, reasons map[int64]string, width int, opts ...AssembleOption) ([]MatchResult, error) {
	if log == nil {
		log = a.logger
	}

	var o assembleOptions
	for _, opt := range opts {
		opt(&o)
	}

	candidates := &filtering.Candidates{Items: make([]*filtering.Candidate, 0, len(retrieved))}
	for _, s := range retrieved {
		candidates.Items = append(candidates.Items, &filtering.Candidate{Score: s.Score, Posting: s.Posting})
	}

	steps := []filtering.Filter{
		filtering.NewOracleEndorsed(),
		filtering.NewExcludeFile(),
		filtering.NewResultWidth(),
	}
	if o.unendorsed != "" {
		filtering.DisableByName(steps, filtering.OracleEndorsedName, o.unendorsed)
	}
	cfg := &filtering.Config{ResultWidth: width, ExcludeFile: a.excludeFile}

	log.Debug("assembly steps", zap.Any("steps", filtering.Describe(steps)))

	kept, err := filtering.Run(ctx, cfg, filtering.Deps{Logger: log, Reasons: reasons}, steps, candidates)
	if err != nil {
		return nil, err
	}

	results := make([]MatchResult, 0, kept.Len())
	for _, c := range kept.Items {
		p := c.Posting
		reason := c.Reason
		if reason == "" && o.explain != nil {
			reason = o.explain(p, c.Score)
		}
		results = append(results, MatchResult{
			JobID:         p.ID,
			Title:         p.Title,
			Company:       p.Company,
			Description:   p.Description,
			Experience:    p.Experience,
			SalaryRange:   p.SalaryRange,
			Location:      p.Location,
			Skills:        slices.Clone(p.Skills),
			MatchScore:    round2(c.Score),
			MatchedSkills: profile.Intersect(p.Skills),
			MatchReason:   reason,
		})
	}

	return results, nil
}

// Titles lists result titles in result order.
func Titles(results []MatchResult) []string {
	titles := make([]string, 0, len(results))
	for _, r := range results {
		titles = append(titles, r.Title)
	}
	return titles
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
