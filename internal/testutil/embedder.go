package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"
)

// FakeEmbedder is a deterministic in-process embedder. The same text
// always maps to the same unit vector, and different texts almost always
// map to different ones, which is enough to exercise ranking and ordering
// without a model.
type FakeEmbedder struct {
	Dim int

	// Err, when set, is returned by every Embed call.
	Err error

	// FailFirst makes the first N calls fail with Err before succeeding,
	// for retry tests.
	FailFirst int32

	calls int32

	mu    sync.Mutex
	fixed map[string][]float32
}

// NewFakeEmbedder returns an embedder producing dim-sized vectors.
func NewFakeEmbedder(dim int) *FakeEmbedder {
	return &FakeEmbedder{Dim: dim, fixed: make(map[string][]float32)}
}

// Fix pins the vector returned for text, normalizing it first. Use it when
// a test needs exact control over distances.
func (f *FakeEmbedder) Fix(text string, vec []float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fixed[text] = normalize(vec)
}

// Calls reports how many times Embed has been invoked.
func (f *FakeEmbedder) Calls() int {
	return int(atomic.LoadInt32(&f.calls))
}

func (f *FakeEmbedder) Dimension() int { return f.Dim }

func (f *FakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.Err != nil && (f.FailFirst == 0 || n <= f.FailFirst) {
		return nil, f.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	pinned, ok := f.fixed[text]
	f.mu.Unlock()
	if ok {
		out := make([]float32, len(pinned))
		copy(out, pinned)
		return out, nil
	}

	// Seed a cheap PRNG from the text so vectors are stable across runs.
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	state := h.Sum64()

	vec := make([]float32, f.Dim)
	for i := range vec {
		state = state*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(state>>33))/float32(1<<30) - 1
	}
	return normalize(vec), nil
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
