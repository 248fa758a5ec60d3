package skills

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/ai"
	"github.com/spigell/skillmatch/internal/utils"
)

//go:embed extract_skills.md
var skillsPromptTemplate string

const defaultMaxLogLength = 200

var (
	ErrNoSkills = errors.New("oracle response contained no skills")

	quotedItem = regexp.MustCompile(`'((?:[^'\\]|\\.)*)'|"((?:[^"\\]|\\.)*)"`)
	listBullet = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)
)

// Extractor asks the oracle for the skills mentioned in a resume.
type Extractor struct {
	oracle    ai.Oracle
	logger    *zap.Logger
	maxLogLen int
}

func NewExtractor(oracle ai.Oracle, logger *zap.Logger, maxLogLength int) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{oracle: oracle, logger: logger, maxLogLen: maxLogLength}
}

// Extract returns an empty profile for blank text without calling the oracle.
func (e *Extractor) Extract(ctx context.Context, resumeText string) (Profile, error) {
	resumeText = strings.TrimSpace(resumeText)
	if resumeText == "" {
		return Profile{}, nil
	}

	prompt := strings.ReplaceAll(skillsPromptTemplate, "{{RESUME_TEXT}}", resumeText)

	e.logger.Debug("skill extraction request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	raw, err := e.oracle.Chat(ctx, prompt)
	if err != nil {
		return Profile{}, fmt.Errorf("extracting skills: %w", err)
	}

	e.logger.Debug("skill extraction response",
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	profile := NewProfile(ParseList(raw)...)
	if profile.Empty() {
		return Profile{}, ErrNoSkills
	}

	return profile, nil
}

// ParseList reads a list of strings from a JSON array, a Python-style list
// literal, or a comma/newline separated list, in that order of preference.
func ParseList(raw string) []string {
	cleaned := ai.ExtractJSON(raw)
	if cleaned == "" {
		return nil
	}

	if payload, ok := ai.FindJSON(cleaned); ok {
		var items []any
		if err := json.Unmarshal([]byte(payload), &items); err == nil {
			out := make([]string, 0, len(items))
			for _, item := range items {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			return out
		}
	}

	if start, end := strings.Index(cleaned, "["), strings.LastIndex(cleaned, "]"); start != -1 && end > start {
		matches := quotedItem.FindAllStringSubmatch(cleaned[start+1:end], -1)
		if len(matches) > 0 {
			out := make([]string, 0, len(matches))
			for _, m := range matches {
				item := m[1]
				if item == "" {
					item = m[2]
				}
				out = append(out, strings.ReplaceAll(item, `\'`, `'`))
			}
			return out
		}
	}

	fields := strings.FieldsFunc(cleaned, func(r rune) bool { return r == ',' || r == '\n' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		field = listBullet.ReplaceAllString(field, "")
		field = strings.Trim(field, `"'`)
		if field != "" {
			out = append(out, field)
		}
	}
	return out
}
