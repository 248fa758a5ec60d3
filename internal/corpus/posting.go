package corpus

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// DefaultDimension matches all-MiniLM-L6-v2, the model the corpus was embedded with.
const DefaultDimension = 384

var (
	ErrNoEmbedding       = errors.New("posting has no embedding")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrNonFinite         = errors.New("embedding contains NaN or Inf")
)

// JobPosting is a read-only view of a stored job posting.
type JobPosting struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"jobTitle" db:"job_title"`
	Company     string    `json:"company" db:"company"`
	Description string    `json:"jobDescription" db:"job_description"`
	Experience  string    `json:"experience" db:"experience"`
	SalaryRange string    `json:"salaryRange" db:"salary_range"`
	Location    string    `json:"location" db:"location"`
	Skills      []string  `json:"skills"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

// HasEmbedding reports whether the posting carries any vector at all.
func (p *JobPosting) HasEmbedding() bool {
	return p != nil && p.Embedding != nil
}

// EmbeddingText is the text a posting embedding is computed from.
func (p *JobPosting) EmbeddingText() string {
	return strings.Join(p.Skills, ", ")
}

// ValidateEmbedding checks shape and finiteness of a vector.
func ValidateEmbedding(vec []float32, dim int) error {
	if vec == nil {
		return ErrNoEmbedding
	}

	if len(vec) != dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), dim)
	}

	for i, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
	}

	return nil
}

// Report summarizes embedding health across a set of postings.
type Report struct {
	Valid      int
	Invalid    int
	InvalidIDs []int64
}

// Validate checks every posting that carries an embedding.
func Validate(postings []*JobPosting, dim int) Report {
	var report Report
	for _, posting := range postings {
		if !posting.HasEmbedding() {
			continue
		}
		if err := ValidateEmbedding(posting.Embedding, dim); err != nil {
			report.Invalid++
			report.InvalidIDs = append(report.InvalidIDs, posting.ID)
			continue
		}
		report.Valid++
	}
	return report
}
