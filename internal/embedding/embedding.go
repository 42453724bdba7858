// Package embedding adapts an external embedding provider to the fixed
// contract the chunk store relies on: text in, vector of exactly the
// configured dimension out.
//
// The Adapter never repairs a provider response. A vector of the wrong
// dimension is rejected as an EmbeddingError so the store's dimension
// invariant can not be violated upstream; truncating or padding would
// silently corrupt similarity ranking.
package embedding

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/lectern-dev/lectern/internal/faults"
)

// Provider is the raw embedding backend: a network or local model service
// turning text into a numeric vector. Implementations live in this package
// (genkit.go) or in tests.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Embedder is the contract the ingestion pipeline and retrieval engine
// consume. Dimension is fixed for the lifetime of the embedder.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Adapter validates and rate-limits a Provider.
type Adapter struct {
	provider Provider
	dim      int
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// Options configures an Adapter.
type Options struct {
	// Dimension is the expected vector width. Required.
	Dimension int

	// Timeout bounds each provider call. Zero means 15s.
	Timeout time.Duration

	// RatePerSecond throttles provider calls. Zero disables throttling.
	RatePerSecond float64
}

// New creates an Adapter around provider. logger may be nil.
func New(provider Provider, opts Options, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}

	return &Adapter{
		provider: provider,
		dim:      opts.Dimension,
		timeout:  opts.Timeout,
		limiter:  limiter,
		logger:   logger,
	}
}

// Dimension returns the validated vector width D.
func (a *Adapter) Dimension() int { return a.dim }

// Embed calls the provider and validates the result. Provider failures,
// timeouts, and dimension mismatches all surface as EmbeddingError.
func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, faults.NewEmbedding("rate limit wait", err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	vec, err := a.provider.Embed(callCtx, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, faults.NewEmbedding("provider timeout", err)
		}
		return nil, faults.NewEmbedding("provider call", err)
	}

	if len(vec) != a.dim {
		a.logger.Error("embedding dimension mismatch",
			"want", a.dim, "got", len(vec))
		return nil, faults.NewEmbedding(
			"provider returned wrong dimension", nil)
	}

	return vec, nil
}

// VerifyDimension probes the provider once at startup and fails if the
// emitted width differs from the configured dimension. Implementers must
// validate D, not assume it.
func (a *Adapter) VerifyDimension(ctx context.Context) error {
	if _, err := a.Embed(ctx, "dimension probe"); err != nil {
		return err
	}
	return nil
}
