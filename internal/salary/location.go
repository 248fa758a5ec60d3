package salary

import (
	"regexp"
	"strings"
)

var trailingState = regexp.MustCompile(`^\S.*[,\s]\s*([A-Za-z]{2})$`)

// LocationKey normalizes a posting location into its bucket key. City-level
// strings ending in a two-letter state code collapse into that state, so
// "Austin, TX" and "Dallas, TX" share the "TX" bucket. Everything else is
// kept as written.
func LocationKey(location string) string {
	location = strings.Join(strings.Fields(location), " ")
	if location == "" {
		return ""
	}

	if len(location) == 2 && isLetters(location) {
		return strings.ToUpper(location)
	}

	if match := trailingState.FindStringSubmatch(location); match != nil {
		return strings.ToUpper(match[1])
	}

	return location
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
