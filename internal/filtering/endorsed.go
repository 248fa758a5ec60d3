package filtering

import (
	"context"

	"go.uber.org/zap"
)

// OracleEndorsedName names the step that keeps oracle-justified candidates.
const OracleEndorsedName = "oracle_endorsed"

type oracleEndorsedFilter struct {
	disabled bool
	reason   string
}

// NewOracleEndorsed creates a filter keeping only candidates the oracle
// justified, attaching the justification to each survivor.
func NewOracleEndorsed() Filter {
	return &oracleEndorsedFilter{}
}

func (f *oracleEndorsedFilter) Name() string { return OracleEndorsedName }

func (f *oracleEndorsedFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *oracleEndorsedFilter) IsEnabled() bool { return !f.disabled }

func (f *oracleEndorsedFilter) Validate(*Config) error { return nil }

func (f *oracleEndorsedFilter) Apply(_ context.Context, deps Deps, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	excluded := c.Exclude(func(item *Candidate) bool {
		reason, ok := deps.Reasons[item.ID()]
		if !ok {
			return true
		}
		item.Reason = reason
		return false
	})

	if len(excluded) > 0 {
		deps.Logger.Debug("excluding candidates not endorsed by the oracle",
			zap.Int64s("excluded_jobs", excluded),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *oracleEndorsedFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
