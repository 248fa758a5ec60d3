// Package pgstore reads job postings from Postgres with the pgvector extension.
package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/spigell/skillmatch/internal/corpus"
)

const selectColumns = `
	id,
	COALESCE(job_title, '')       AS job_title,
	COALESCE(company, '')         AS company,
	COALESCE(job_description, '') AS job_description,
	COALESCE(experience, '')      AS experience,
	COALESCE(salary_range, '')    AS salary_range,
	COALESCE(location, '')        AS location,
	COALESCE(skills, '{}')        AS skills,
	embedding`

type row struct {
	ID          int64            `db:"id"`
	Title       string           `db:"job_title"`
	Company     string           `db:"company"`
	Description string           `db:"job_description"`
	Experience  string           `db:"experience"`
	SalaryRange string           `db:"salary_range"`
	Location    string           `db:"location"`
	Skills      pq.StringArray   `db:"skills"`
	Embedding   *pgvector.Vector `db:"embedding"`
}

func (r row) posting() *corpus.JobPosting {
	posting := &corpus.JobPosting{
		ID:          r.ID,
		Title:       r.Title,
		Company:     r.Company,
		Description: r.Description,
		Experience:  r.Experience,
		SalaryRange: r.SalaryRange,
		Location:    r.Location,
		Skills:      corpus.NormalizeSkills(r.Skills),
	}
	if r.Embedding != nil {
		posting.Embedding = r.Embedding.Slice()
	}
	return posting
}

// Store implements corpus.Store and corpus.NearestSearcher over a jobs table.
type Store struct {
	db    *sqlx.DB
	table string
}

// Open connects to Postgres and applies pool limits.
func Open(ctx context.Context, dsn string, maxOpenConns int) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(max(1, maxOpenConns/5))
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// New wraps an open connection. An empty table name means "jobs".
func New(db *sqlx.DB, table string) *Store {
	if table == "" {
		table = "jobs"
	}
	return &Store{db: db, table: pq.QuoteIdentifier(table)}
}

func (s *Store) WithEmbedding(ctx context.Context) ([]*corpus.JobPosting, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE embedding IS NOT NULL ORDER BY id`, selectColumns, s.table)
	return s.selectPostings(ctx, "selecting embedded postings", query)
}

func (s *Store) ByTitle(ctx context.Context, title string) ([]*corpus.JobPosting, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE job_title = $1 ORDER BY id`, selectColumns, s.table)
	return s.selectPostings(ctx, "selecting postings by title", query, title)
}

func (s *Store) All(ctx context.Context) ([]*corpus.JobPosting, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, selectColumns, s.table)
	return s.selectPostings(ctx, "selecting postings", query)
}

// Nearest pre-selects the closest postings by cosine distance. Results are
// returned in id order so the in-process ranking keeps a stable tie-break.
func (s *Store) Nearest(ctx context.Context, query []float32, limit int) ([]*corpus.JobPosting, error) {
	stmt := fmt.Sprintf(`
		SELECT * FROM (
			SELECT %s FROM %s
			WHERE embedding IS NOT NULL
			ORDER BY embedding <=> $1
			LIMIT $2
		) nearest ORDER BY id`, selectColumns, s.table)

	return s.selectPostings(ctx, "selecting nearest postings", stmt, pgvector.NewVector(query), limit)
}

func (s *Store) selectPostings(ctx context.Context, op, query string, args ...any) ([]*corpus.JobPosting, error) {
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postings := make([]*corpus.JobPosting, 0, len(rows))
	for _, r := range rows {
		postings = append(postings, r.posting())
	}
	return postings, nil
}
