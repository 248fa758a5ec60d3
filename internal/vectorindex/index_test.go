package vectorindex

import (
	"math"
	"math/rand"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/skillmatch/internal/corpus"
)

// unitAt returns a 2-d unit vector whose cosine with (1, 0) equals sim.
func unitAt(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

func TestCosineProperties(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 200; n++ {
		a := make([]float32, 8)
		b := make([]float32, 8)
		for i := range a {
			a[i] = float32(rng.NormFloat64())
			b[i] = float32(rng.NormFloat64())
		}

		ab, err := Cosine(a, b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ba, _ := Cosine(b, a)
		if ab != ba {
			t.Fatalf("cosine not symmetric: %v vs %v", ab, ba)
		}
		if ab < -1 || ab > 1 {
			t.Fatalf("cosine out of bounds: %v", ab)
		}
	}
}

func TestCosineEdgeCases(t *testing.T) {
	t.Parallel()

	if _, err := Cosine(nil, []float32{1}); err == nil {
		t.Fatalf("expected error for empty vector")
	}
	if _, err := Cosine([]float32{1, 2}, []float32{1}); err == nil {
		t.Fatalf("expected error for length mismatch")
	}
	if got, err := Cosine([]float32{0, 0}, []float32{1, 1}); err != nil || got != 0 {
		t.Fatalf("zero vector must score 0, got %v %v", got, err)
	}
	if got, _ := Cosine([]float32{1, 1}, []float32{2, 2}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("parallel vectors must score 1, got %v", got)
	}
}

func TestSearchSingleMatch(t *testing.T) {
	t.Parallel()

	postings := []*corpus.JobPosting{
		{ID: 1, Skills: []string{"python", "aws"}, Embedding: unitAt(0.5)},
	}

	got := New(DefaultThreshold, DefaultWidth, zap.NewNop()).Search([]float32{1, 0}, postings)
	if len(got) != 1 || got[0].Posting.ID != 1 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if math.Abs(got[0].Score-0.5) > 1e-6 {
		t.Fatalf("unexpected score: %v", got[0].Score)
	}
}

func TestSearchThresholdIsStrict(t *testing.T) {
	t.Parallel()

	postings := []*corpus.JobPosting{
		{ID: 1, Embedding: []float32{1, 0}},
		{ID: 2, Embedding: []float32{0, 1}},
		{ID: 3, Embedding: []float32{-1, 0}},
	}

	// Threshold 0 drops the orthogonal posting that scores exactly 0.
	got := New(0, DefaultWidth, zap.NewNop()).Search([]float32{1, 0}, postings)
	if len(got) != 1 || got[0].Posting.ID != 1 {
		t.Fatalf("unexpected result: %+v", got)
	}

	for _, s := range New(DefaultThreshold, DefaultWidth, nil).Search([]float32{1, 0}, postings) {
		if s.Score <= DefaultThreshold {
			t.Fatalf("retrieved posting %d at %v", s.Posting.ID, s.Score)
		}
	}
}

func TestSearchOrdersAndTruncates(t *testing.T) {
	t.Parallel()

	sims := []float64{0.4, 0.9, 0.35, 0.9, 0.7, 0.2}
	postings := make([]*corpus.JobPosting, 0, len(sims))
	for i, sim := range sims {
		postings = append(postings, &corpus.JobPosting{ID: int64(i + 1), Embedding: unitAt(sim)})
	}

	got := New(DefaultThreshold, 3, zap.NewNop()).Search([]float32{1, 0}, postings)

	wantIDs := []int64{2, 4, 5}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d results, got %d", len(wantIDs), len(got))
	}
	for i, id := range wantIDs {
		if got[i].Posting.ID != id {
			t.Fatalf("position %d: got id %d, want %d", i, got[i].Posting.ID, id)
		}
	}
}

func TestSearchWidthInvariant(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(3))
	postings := make([]*corpus.JobPosting, 0, 500)
	above := 0
	query := []float32{1, 0}
	for i := 0; i < 500; i++ {
		sim := rng.Float64()*2 - 1
		vec := unitAt(sim)
		score, _ := Cosine(query, vec)
		if score > DefaultThreshold {
			above++
		}
		postings = append(postings, &corpus.JobPosting{ID: int64(i), Embedding: vec})
	}

	got := New(DefaultThreshold, DefaultWidth, nil).Search(query, postings)
	if len(got) != min(DefaultWidth, above) {
		t.Fatalf("expected %d results, got %d", min(DefaultWidth, above), len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Fatalf("results not sorted at %d", i)
		}
	}
}

func TestSearchSkipsInvalidEmbeddings(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)

	nan := []float32{float32(math.NaN()), 1}
	postings := []*corpus.JobPosting{
		{ID: 1, Embedding: nil},
		{ID: 2, Embedding: []float32{1, 0, 0}},
		{ID: 3, Embedding: nan},
		{ID: 4, Embedding: []float32{1, 0.1}},
	}

	got := New(DefaultThreshold, DefaultWidth, zap.New(core)).Search([]float32{1, 0}, postings)
	if len(got) != 1 || got[0].Posting.ID != 4 {
		t.Fatalf("unexpected result: %+v", got)
	}

	warnings := logs.FilterMessage("skipping posting with invalid embedding").All()
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(warnings))
	}
	if id := warnings[0].ContextMap()["job_id"]; id != int64(2) {
		t.Fatalf("unexpected job id field: %v", id)
	}
}

func TestSearchNoValidEmbeddings(t *testing.T) {
	t.Parallel()

	postings := []*corpus.JobPosting{
		{ID: 1},
		{ID: 2, Embedding: []float32{1}},
	}

	if got := New(DefaultThreshold, DefaultWidth, zap.NewNop()).Search([]float32{1, 0}, postings); len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
	if got := New(DefaultThreshold, DefaultWidth, zap.NewNop()).Search(nil, postings); len(got) != 0 {
		t.Fatalf("expected empty result for empty query, got %+v", got)
	}
}
