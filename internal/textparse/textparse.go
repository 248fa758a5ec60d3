// Package textparse reads numbers out of free-text experience and salary fields.
// Every parser reports ok=false instead of failing so callers can skip the row.
package textparse

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	integerRun      = regexp.MustCompile(`\d+`)
	numberRun       = regexp.MustCompile(`\d[\d.,]*`)
	rangeSeparators = []string{" to ", " TO ", "–", "—", "-"}
)

// ExperienceMidpoint returns the mean of the two integers in s, e.g. "2 to 8 Years" -> 5.
func ExperienceMidpoint(s string) (float64, bool) {
	runs := integerRun.FindAllString(s, -1)
	if len(runs) != 2 {
		return 0, false
	}

	lo, err := strconv.Atoi(runs[0])
	if err != nil {
		return 0, false
	}
	hi, err := strconv.Atoi(runs[1])
	if err != nil {
		return 0, false
	}

	return float64(lo+hi) / 2, true
}

// SalaryBounds reads the two bounds of a salary range, ignoring currency
// symbols and unit suffixes. "$50K-$100K" -> 50, 100. The range must hold
// exactly one separator and each side exactly one number.
func SalaryBounds(s string) (float64, float64, bool) {
	left, right, found := splitRange(s)
	if !found {
		return 0, 0, false
	}

	lo, ok := parseBound(left)
	if !ok {
		return 0, 0, false
	}
	hi, ok := parseBound(right)
	if !ok {
		return 0, 0, false
	}

	return lo, hi, true
}

// SalaryMidpoint is the arithmetic mean of SalaryBounds.
func SalaryMidpoint(s string) (float64, bool) {
	lo, hi, ok := SalaryBounds(s)
	if !ok {
		return 0, false
	}
	return (lo + hi) / 2, true
}

func splitRange(s string) (string, string, bool) {
	total, at, sepLen := 0, -1, 0
	for _, sep := range rangeSeparators {
		n := strings.Count(s, sep)
		if n == 0 {
			continue
		}
		total += n
		at, sepLen = strings.Index(s, sep), len(sep)
	}
	if total != 1 {
		return "", "", false
	}
	return s[:at], s[at+sepLen:], true
}

func parseBound(s string) (float64, bool) {
	runs := numberRun.FindAllString(s, -1)
	if len(runs) != 1 {
		return 0, false
	}

	cleaned := strings.TrimRight(strings.ReplaceAll(runs[0], ",", ""), ".")
	if cleaned == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
