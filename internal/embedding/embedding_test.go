package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lectern-dev/lectern/internal/faults"
)

// stubProvider returns a canned vector or error.
type stubProvider struct {
	vec   []float32
	err   error
	delay time.Duration
	calls int
}

func (s *stubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.vec, nil
}

func TestAdapterEmbed(t *testing.T) {
	provider := &stubProvider{vec: []float32{1, 2, 3}}
	a := New(provider, Options{Dimension: 3}, nil)

	vec, err := a.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed() failed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("len(vec) = %d, want 3", len(vec))
	}
	if a.Dimension() != 3 {
		t.Errorf("Dimension() = %d, want 3", a.Dimension())
	}
}

func TestAdapterRejectsWrongDimension(t *testing.T) {
	provider := &stubProvider{vec: []float32{1, 2, 3, 4}}
	a := New(provider, Options{Dimension: 3}, nil)

	_, err := a.Embed(context.Background(), "hello")

	var eerr *faults.EmbeddingError
	if !errors.As(err, &eerr) {
		t.Fatalf("expected EmbeddingError, got %v", err)
	}
}

func TestAdapterProviderFailure(t *testing.T) {
	cause := errors.New("connection refused")
	provider := &stubProvider{err: cause}
	a := New(provider, Options{Dimension: 3}, nil)

	_, err := a.Embed(context.Background(), "hello")

	var eerr *faults.EmbeddingError
	if !errors.As(err, &eerr) {
		t.Fatalf("expected EmbeddingError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("provider cause lost through wrapping")
	}
}

func TestAdapterTimeout(t *testing.T) {
	provider := &stubProvider{vec: []float32{1, 2, 3}, delay: 200 * time.Millisecond}
	a := New(provider, Options{Dimension: 3, Timeout: 20 * time.Millisecond}, nil)

	_, err := a.Embed(context.Background(), "hello")

	var eerr *faults.EmbeddingError
	if !errors.As(err, &eerr) {
		t.Fatalf("expected EmbeddingError, got %v", err)
	}
	if eerr.Reason != "provider timeout" {
		t.Errorf("Reason = %q, want provider timeout", eerr.Reason)
	}
}

func TestAdapterRespectsCallerCancellation(t *testing.T) {
	provider := &stubProvider{vec: []float32{1, 2, 3}, delay: time.Second}
	a := New(provider, Options{Dimension: 3, Timeout: 10 * time.Second}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Embed(ctx, "hello"); err == nil {
		t.Fatal("expected error from canceled context")
	}
}

func TestVerifyDimension(t *testing.T) {
	good := New(&stubProvider{vec: make([]float32, 384)}, Options{Dimension: 384}, nil)
	if err := good.VerifyDimension(context.Background()); err != nil {
		t.Errorf("VerifyDimension() failed on matching provider: %v", err)
	}

	bad := New(&stubProvider{vec: make([]float32, 768)}, Options{Dimension: 384}, nil)
	if err := bad.VerifyDimension(context.Background()); err == nil {
		t.Error("VerifyDimension() accepted mismatched provider")
	}
}

func TestAdapterRateLimit(t *testing.T) {
	provider := &stubProvider{vec: []float32{1}}
	a := New(provider, Options{Dimension: 1, RatePerSecond: 50}, nil)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := a.Embed(context.Background(), "x"); err != nil {
			t.Fatalf("Embed() %d failed: %v", i, err)
		}
	}
	// Burst of 1 at 50/s: calls 2 and 3 wait ~20ms each.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("3 calls took %s, limiter not applied", elapsed)
	}
}
