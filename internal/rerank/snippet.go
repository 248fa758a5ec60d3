package rerank

import (
	"github.com/spigell/skillmatch/internal/utils"
	"github.com/spigell/skillmatch/internal/vectorindex"
)

const DefaultSnippetLength = 600

// Snippet is the bounded view of a posting sent to the oracle.
type Snippet struct {
	JobID       int64    `json:"jobId"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
}

// Snippets converts retrieval output, truncating descriptions to maxDescription runes.
func Snippets(retrieved []vectorindex.Scored, maxDescription int) []Snippet {
	if maxDescription <= 0 {
		maxDescription = DefaultSnippetLength
	}

	out := make([]Snippet, 0, len(retrieved))
	for _, s := range retrieved {
		if s.Posting == nil {
			continue
		}
		skills := s.Posting.Skills
		if skills == nil {
			skills = []string{}
		}
		out = append(out, Snippet{
			JobID:       s.Posting.ID,
			Title:       s.Posting.Title,
			Company:     s.Posting.Company,
			Description: utils.TruncateForLog(utils.CollapseWhitespace(s.Posting.Description), maxDescription),
			Skills:      skills,
		})
	}
	return out
}
