package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
)

// MemoryStore is an immutable in-process corpus snapshot.
type MemoryStore struct {
	postings []*JobPosting
	byTitle  map[string][]*JobPosting
}

// NewMemoryStore snapshots the given postings, ordered by id.
func NewMemoryStore(postings []*JobPosting) *MemoryStore {
	sorted := slices.Clone(postings)
	sorted = slices.DeleteFunc(sorted, func(p *JobPosting) bool { return p == nil })
	slices.SortStableFunc(sorted, func(a, b *JobPosting) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})

	byTitle := make(map[string][]*JobPosting)
	for _, posting := range sorted {
		byTitle[posting.Title] = append(byTitle[posting.Title], posting)
	}

	return &MemoryStore{postings: sorted, byTitle: byTitle}
}

// LoadFile reads a JSON array of postings.
func LoadFile(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus file: %w", err)
	}

	var postings []*JobPosting
	if err := json.Unmarshal(data, &postings); err != nil {
		return nil, fmt.Errorf("decoding corpus file %q: %w", path, err)
	}

	for _, posting := range postings {
		if posting != nil {
			posting.Skills = NormalizeSkills(posting.Skills)
		}
	}

	return NewMemoryStore(postings), nil
}

func (s *MemoryStore) WithEmbedding(_ context.Context) ([]*JobPosting, error) {
	out := make([]*JobPosting, 0, len(s.postings))
	for _, posting := range s.postings {
		if posting.HasEmbedding() {
			out = append(out, posting)
		}
	}
	return out, nil
}

func (s *MemoryStore) ByTitle(_ context.Context, title string) ([]*JobPosting, error) {
	return slices.Clone(s.byTitle[title]), nil
}

func (s *MemoryStore) All(_ context.Context) ([]*JobPosting, error) {
	return slices.Clone(s.postings), nil
}

func (s *MemoryStore) Len() int {
	return len(s.postings)
}

// NormalizeSkills lower-cases and trims skills, dropping blanks.
func NormalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		if skill = strings.ToLower(strings.TrimSpace(skill)); skill != "" {
			out = append(out, skill)
		}
	}
	return out
}
