// Package salary aggregates mean salary series for matched job titles.
package salary

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const meanPlaces = 6

// Trend maps a job title to its salary series.
type Trend map[string]TitleTrend

type TitleTrend struct {
	Progression ProgressionSeries `json:"salaryProgression"`
	Location    LocationSeries    `json:"locationTrend"`
}

// ProgressionSeries maps an experience midpoint in years to a mean salary midpoint.
type ProgressionSeries map[float64]float64

// MarshalJSON writes keys as decimal strings in ascending order.
func (p ProgressionSeries) MarshalJSON() ([]byte, error) {
	keys := make([]float64, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(strconv.FormatFloat(k, 'f', -1, 64))
		value, err := json.Marshal(p[k])
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(value)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// LocationSeries maps a location or state key to a mean salary midpoint.
type LocationSeries map[string]float64

// meanAccumulator keeps exact sums so the mean does not depend on row order.
type meanAccumulator struct {
	sums   map[string]decimal.Decimal
	counts map[string]int64
}

func newMeanAccumulator() *meanAccumulator {
	return &meanAccumulator{
		sums:   make(map[string]decimal.Decimal),
		counts: make(map[string]int64),
	}
}

func (a *meanAccumulator) add(key string, value float64) {
	a.sums[key] = a.sums[key].Add(decimal.NewFromFloat(value))
	a.counts[key]++
}

func (a *meanAccumulator) means() map[string]float64 {
	out := make(map[string]float64, len(a.sums))
	for key, sum := range a.sums {
		out[key] = sum.DivRound(decimal.NewFromInt(a.counts[key]), meanPlaces).InexactFloat64()
	}
	return out
}
