// Package rerank asks a reasoning oracle which retrieved postings really fit
// a candidate and why.
package rerank

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/ai"
	"github.com/spigell/skillmatch/internal/errs"
	"github.com/spigell/skillmatch/internal/logger"
	"github.com/spigell/skillmatch/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const (
	DefaultLimit        = 15
	DefaultTimeout      = 60 * time.Second
	defaultMaxLogLength = 200
)

type Options struct {
	Limit        int
	Timeout      time.Duration
	MaxLogLength int
}

// Reranker is stateless; one instance serves concurrent requests.
type Reranker struct {
	oracle    ai.Oracle
	limit     int
	timeout   time.Duration
	maxLogLen int
	logger    *zap.Logger
}

func New(oracle ai.Oracle, opts Options, log *zap.Logger) *Reranker {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Reranker{
		oracle:    oracle,
		limit:     opts.Limit,
		timeout:   opts.Timeout,
		maxLogLen: opts.MaxLogLength,
		logger:    logger.WithCommonFields(log, "", oracle.Model()),
	}
}

// Rerank returns a justification per endorsed job id. Only ids present in
// snippets can appear in the result. Oracle and parse failures are logged
// and produce an empty map.
func (r *Reranker) Rerank(ctx context.Context, skills []string, snippets []Snippet) map[int64]string {
	reasons := make(map[int64]string)
	if len(snippets) == 0 || len(skills) == 0 {
		return reasons
	}

	prompt, err := r.buildPrompt(skills, snippets)
	if err != nil {
		r.logger.Warn("failed to build rerank prompt", zap.Error(errs.InternalErr("building prompt", err)))
		return reasons
	}

	r.logger.Debug("rerank request",
		zap.Int("snippets", len(snippets)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, r.maxLogLen)),
	)

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.oracle.Chat(callCtx, prompt)
	if err != nil {
		r.logger.Warn("oracle rerank call failed", zap.Error(errs.ExternalErr("oracle rerank", err)))
		return reasons
	}

	r.logger.Debug("rerank response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, r.maxLogLen)),
	)

	judgments, err := parseResponse(raw)
	if err != nil {
		r.logger.Warn("could not parse oracle rerank response",
			zap.String("response_preview", utils.TruncateForLog(raw, r.maxLogLen)),
			zap.Error(errs.ExternalErr("parsing rerank response", err)),
		)
		return reasons
	}

	allowed := make(map[int64]struct{}, len(snippets))
	for _, s := range snippets {
		allowed[s.JobID] = struct{}{}
	}

	phantom := 0
	for _, j := range judgments {
		if _, ok := allowed[j.JobID]; !ok {
			phantom++
			r.logger.Debug("dropping judgment for unknown job", logger.JobID(j.JobID))
			continue
		}
		if j.MatchReason == "" {
			continue
		}
		if _, seen := reasons[j.JobID]; seen {
			continue
		}
		reasons[j.JobID] = j.MatchReason
	}

	r.logger.Debug("rerank finished",
		zap.Int("judgments", len(judgments)),
		zap.Int("endorsed", len(reasons)),
		zap.Int("phantom", phantom),
	)

	return reasons
}

func (r *Reranker) buildPrompt(skills []string, snippets []Snippet) (string, error) {
	jobsJSON, err := json.MarshalIndent(snippets, "", "  ")
	if err != nil {
		return "", err
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{SKILLS}}", strings.Join(skills, ", "))
	prompt = strings.ReplaceAll(prompt, "{{JOBS_JSON}}", string(jobsJSON))
	prompt = strings.ReplaceAll(prompt, "{{LIMIT}}", strconv.Itoa(r.limit))
	return prompt, nil
}
