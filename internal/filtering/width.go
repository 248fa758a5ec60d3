package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

const DefaultResultWidth = 10

type resultWidthFilter struct {
	width int
}

// NewResultWidth creates a filter that truncates candidates to the requested result width.
func NewResultWidth() Filter {
	return &resultWidthFilter{}
}

func (f *resultWidthFilter) Name() string { return "result_width" }

func (f *resultWidthFilter) Disable(string) {}

func (f *resultWidthFilter) IsEnabled() bool { return true }

func (f *resultWidthFilter) Validate(cfg *Config) error {
	f.width = DefaultResultWidth
	if cfg != nil && cfg.ResultWidth > 0 {
		f.width = cfg.ResultWidth
	}
	if f.width <= 0 {
		return fmt.Errorf("result width must be positive")
	}
	return nil
}

func (f *resultWidthFilter) Apply(_ context.Context, deps Deps, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	excluded := c.Truncate(f.width)
	if len(excluded) > 0 {
		deps.Logger.Debug("truncating candidates to result width",
			zap.Int("width", f.width),
			zap.Int64s("excluded_jobs", excluded),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *resultWidthFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: true, Details: map[string]string{"width": strconv.Itoa(f.width)}}
}
