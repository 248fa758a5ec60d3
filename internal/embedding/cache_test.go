package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubProvider struct {
	vec   []float32
	err   error
	calls int
}

func (s *stubProvider) Embed(context.Context, string) ([]float32, error) {
	s.calls++
	return s.vec, s.err
}

func (s *stubProvider) Dimension() int { return len(s.vec) }

type memoryKV struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: make(map[string][]byte)}
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	val, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return val, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func TestCachedServesSecondCallFromCache(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{vec: []float32{0.25, -1, 3.5}}
	cached := NewCached(provider, newMemoryKV(), "text-embedding-3-small", time.Minute, zap.NewNop())

	for i := 0; i < 2; i++ {
		vec, err := cached.Embed(context.Background(), "python, sql")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(vec) != 3 || vec[1] != -1 || vec[2] != 3.5 {
			t.Fatalf("unexpected vector: %v", vec)
		}
	}

	if provider.calls != 1 {
		t.Fatalf("expected provider to be called once, got %d", provider.calls)
	}
}

func TestCachedKeyDependsOnModel(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{vec: []float32{1}}
	a := NewCached(provider, newMemoryKV(), "model-a", 0, nil)
	b := NewCached(provider, newMemoryKV(), "model-b", 0, nil)

	if a.key("go") == b.key("go") {
		t.Fatalf("keys for different models must differ")
	}
	if a.key("go") == a.key("rust") {
		t.Fatalf("keys for different texts must differ")
	}
}

func TestCachedBypassesBrokenBackend(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	kv := newMemoryKV()
	kv.getErr = errors.New("connection refused")
	kv.setErr = errors.New("connection refused")

	provider := &stubProvider{vec: []float32{1, 2}}
	cached := NewCached(provider, kv, "m", time.Minute, zap.New(core))

	vec, err := cached.Embed(context.Background(), "go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 {
		t.Fatalf("unexpected vector: %v", vec)
	}
	if logs.Len() != 2 {
		t.Fatalf("expected read and write warnings, got %d", logs.Len())
	}
}

func TestCachedDiscardsCorruptEntry(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{vec: []float32{1, 2}}
	kv := newMemoryKV()
	cached := NewCached(provider, kv, "m", time.Minute, zap.NewNop())
	kv.data[cached.key("go")] = []byte{1, 2, 3}

	if _, err := cached.Embed(context.Background(), "go"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("expected provider call after corrupt entry, got %d", provider.calls)
	}
	if len(kv.data[cached.key("go")]) != 8 {
		t.Fatalf("expected corrupt entry to be overwritten")
	}
}

func TestCachedPropagatesProviderError(t *testing.T) {
	t.Parallel()

	want := errors.New("quota exceeded")
	cached := NewCached(&stubProvider{err: want}, newMemoryKV(), "m", time.Minute, zap.NewNop())

	if _, err := cached.Embed(context.Background(), "go"); !errors.Is(err, want) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestEncodeDecodeRejectsWrongLength(t *testing.T) {
	t.Parallel()

	if _, err := decodeVector(encodeVector([]float32{1, 2, 3}), 4); err == nil {
		t.Fatalf("expected length error")
	}
}

// providerDefaultDim reports no fixed dimension, like an SDK left on its
// model default.
type providerDefaultDim struct {
	stubProvider
}

func (p *providerDefaultDim) Dimension() int { return 0 }

func TestCachedHitsWithProviderDefaultDimension(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	provider := &providerDefaultDim{stubProvider{vec: []float32{0.5, 1.5, -2}}}
	cached := NewCached(provider, newMemoryKV(), "m", time.Minute, zap.New(core))

	for i := 0; i < 2; i++ {
		vec, err := cached.Embed(context.Background(), "go")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(vec) != 3 || vec[2] != -2 {
			t.Fatalf("unexpected vector: %v", vec)
		}
	}

	if provider.calls != 1 {
		t.Fatalf("expected provider to be called once, got %d", provider.calls)
	}
	if logs.Len() != 0 {
		t.Fatalf("unexpected warnings: %v", logs.All())
	}
}

func TestDecodeWithoutDimensionNeedsWholeFloats(t *testing.T) {
	t.Parallel()

	if _, err := decodeVector([]byte{1, 2, 3, 4, 5}, 0); err == nil {
		t.Fatalf("expected error for partial float")
	}
	if _, err := decodeVector(nil, 0); err == nil {
		t.Fatalf("expected error for empty buffer")
	}
	vec, err := decodeVector(encodeVector([]float32{1, 2}), 0)
	if err != nil || len(vec) != 2 || vec[1] != 2 {
		t.Fatalf("unexpected decode: %v %v", vec, err)
	}
}
