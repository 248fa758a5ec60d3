package rerank

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/skillmatch/internal/ai"
)

var (
	errNoJudgments = errors.New("no judgments found in oracle response")

	linePattern = regexp.MustCompile(`^\s*(?:[-*]\s*)?#?(\d+)\s*[-–—:]\s*(.+)$`)
)

// judgment is one oracle verdict in the structured response shape.
type judgment struct {
	JobID       int64  `mapstructure:"jobId"`
	MatchReason string `mapstructure:"matchReason"`
}

// parseResponse returns judgments in response order. The structured shape is
// tried first, then the line shape. Malformed entries are skipped one by one;
// a JSON payload without a single usable entry counts as no structured shape.
func parseResponse(raw string) ([]judgment, error) {
	if judgments, ok := parseStructured(raw); ok {
		return judgments, nil
	}

	judgments := parseLines(raw)
	if len(judgments) == 0 {
		return nil, errNoJudgments
	}
	return judgments, nil
}

func parseStructured(raw string) ([]judgment, bool) {
	payload, ok := ai.FindJSON(raw)
	if !ok {
		return nil, false
	}

	var decoded any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return nil, false
	}

	var entries []any
	switch v := decoded.(type) {
	case []any:
		entries = v
	case map[string]any:
		list, ok := v["matches"].([]any)
		if !ok {
			return nil, false
		}
		entries = list
	default:
		return nil, false
	}

	judgments := make([]judgment, 0, len(entries))
	for _, entry := range entries {
		if j, ok := decodeJudgment(entry); ok {
			judgments = append(judgments, j)
		}
	}
	return judgments, len(judgments) > 0
}

func decodeJudgment(entry any) (judgment, bool) {
	fields, ok := entry.(map[string]any)
	if !ok {
		return judgment{}, false
	}
	if _, ok := fields["jobId"]; !ok {
		return judgment{}, false
	}
	// Some models answer with a list or an object of reasons.
	if reason, ok := fields["matchReason"]; ok {
		fields["matchReason"] = ai.CoerceString(reason)
	}

	var j judgment
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &j,
	})
	if err != nil {
		return judgment{}, false
	}
	if err := decoder.Decode(fields); err != nil {
		return judgment{}, false
	}

	j.MatchReason = strings.TrimSpace(j.MatchReason)
	return j, true
}

func parseLines(raw string) []judgment {
	var judgments []judgment
	for _, line := range strings.Split(ai.ExtractJSON(raw), "\n") {
		m := linePattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		j, ok := decodeJudgment(map[string]any{"jobId": m[1], "matchReason": m[2]})
		if !ok {
			continue
		}
		judgments = append(judgments, j)
	}
	return judgments
}
