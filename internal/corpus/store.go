package corpus

import "context"

// Store is the read side of the job posting storage collaborator.
// Implementations return postings ordered by id so retrieval ties are stable.
type Store interface {
	// WithEmbedding returns every posting whose embedding column is not null.
	WithEmbedding(ctx context.Context) ([]*JobPosting, error)
	// ByTitle returns postings with exactly this title.
	ByTitle(ctx context.Context, title string) ([]*JobPosting, error)
	// All returns every posting, embedded or not.
	All(ctx context.Context) ([]*JobPosting, error)
}

// NearestSearcher is implemented by stores that can pre-select candidates
// server-side by vector distance.
type NearestSearcher interface {
	Nearest(ctx context.Context, query []float32, limit int) ([]*JobPosting, error)
}
