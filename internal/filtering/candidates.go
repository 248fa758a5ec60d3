package filtering

import (
	"slices"

	"github.com/spigell/skillmatch/internal/corpus"
)

// Candidate is a retrieved posting moving through the filter steps.
type Candidate struct {
	Score   float64
	Posting *corpus.JobPosting
	Reason  string
}

func (c *Candidate) ID() int64 {
	if c == nil || c.Posting == nil {
		return 0
	}
	return c.Posting.ID
}

// Candidates keeps retrieval order; filters only remove items.
type Candidates struct {
	Items []*Candidate
}

func (c *Candidates) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

// Exclude removes candidates for which drop returns true and reports their ids.
func (c *Candidates) Exclude(drop func(*Candidate) bool) []int64 {
	var excluded []int64
	c.Items = slices.DeleteFunc(c.Items, func(item *Candidate) bool {
		if item == nil || drop(item) {
			excluded = append(excluded, item.ID())
			return true
		}
		return false
	})
	return excluded
}

// Truncate keeps the first n candidates and reports the ids cut off.
func (c *Candidates) Truncate(n int) []int64 {
	if n < 0 || len(c.Items) <= n {
		return nil
	}
	excluded := make([]int64, 0, len(c.Items)-n)
	for _, item := range c.Items[n:] {
		excluded = append(excluded, item.ID())
	}
	c.Items = c.Items[:n]
	return excluded
}
