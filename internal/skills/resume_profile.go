package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/ai"
	"github.com/spigell/skillmatch/internal/utils"
)

//go:embed extract_profile.md
var profilePromptTemplate string

// ResumeProfile is the structured summary the oracle extracts from a resume.
type ResumeProfile struct {
	Name                  string             `json:"name,omitempty" mapstructure:"name"`
	TotalYearsExperience  float64            `json:"totalYearsExperience,omitempty" mapstructure:"totalYearsExperience"`
	TotalYearsEducation   float64            `json:"totalYearsEducation,omitempty" mapstructure:"totalYearsEducation"`
	LatestExperienceTitle string             `json:"latestExperienceTitle,omitempty" mapstructure:"latestExperienceTitle"`
	LatestEducationLevel  string             `json:"latestEducationLevel,omitempty" mapstructure:"latestEducationLevel"`
	ExperienceByDomain    map[string]float64 `json:"experienceByDomain,omitempty" mapstructure:"experienceByDomain"`
	PastEmployers         []string           `json:"pastEmployers,omitempty" mapstructure:"pastEmployers"`
	IndustriesWorkedIn    []string           `json:"industriesWorkedIn,omitempty" mapstructure:"industriesWorkedIn"`
	Publications          int                `json:"publications,omitempty" mapstructure:"publications"`
	Patents               int                `json:"patents,omitempty" mapstructure:"patents"`
}

// ProfileExtractor asks the oracle for a ResumeProfile.
type ProfileExtractor struct {
	oracle    ai.Oracle
	logger    *zap.Logger
	maxLogLen int
}

func NewProfileExtractor(oracle ai.Oracle, logger *zap.Logger, maxLogLength int) *ProfileExtractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileExtractor{oracle: oracle, logger: logger, maxLogLen: maxLogLength}
}

func (p *ProfileExtractor) Extract(ctx context.Context, resumeText string) (*ResumeProfile, error) {
	resumeText = strings.TrimSpace(resumeText)
	if resumeText == "" {
		return &ResumeProfile{}, nil
	}

	prompt := strings.ReplaceAll(profilePromptTemplate, "{{RESUME_TEXT}}", resumeText)
	raw, err := p.oracle.Chat(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extracting resume profile: %w", err)
	}

	p.logger.Debug("resume profile response",
		zap.String("response_preview", utils.TruncateForLog(raw, p.maxLogLen)),
	)

	return ParseResumeProfile(raw)
}

// ParseResumeProfile decodes a loosely typed profile object. Numbers given as
// strings and single strings given where lists are expected are accepted.
func ParseResumeProfile(raw string) (*ResumeProfile, error) {
	payload, ok := ai.FindJSON(raw)
	if !ok {
		return nil, fmt.Errorf("resume profile response is not JSON")
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("parse resume profile: %w", err)
	}

	profile := &ResumeProfile{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           profile,
	})
	if err != nil {
		return nil, fmt.Errorf("create profile decoder: %w", err)
	}

	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode resume profile: %w", err)
	}

	return profile, nil
}
