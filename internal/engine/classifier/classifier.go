// Package classifier defines the contract for the external risk model and
// its implementations: local ONNX inference, a remote HTTP model, and a
// plain function adapter.
//
// The model is an untrusted collaborator. Every implementation returns one
// probability per input vector, and Validate rejects anything outside [0,1].
package classifier

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/crimson-sun/riskscan/internal/model"
)

// Classifier scores feature vectors with a fraud probability.
type Classifier interface {
	// Classify scores a single vector.
	Classify(ctx context.Context, vec model.FeatureVector) (float64, error)
	// ClassifyBatch scores vectors in order; the result has one entry per input.
	ClassifyBatch(ctx context.Context, vecs []model.FeatureVector) ([]float64, error)
	Close() error
}

// Func adapts a per-vector scoring function to a Classifier.
type Func func(vec model.FeatureVector) (float64, error)

func (f Func) Classify(ctx context.Context, vec model.FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return f(vec)
}

func (f Func) ClassifyBatch(ctx context.Context, vecs []model.FeatureVector) ([]float64, error) {
	out := make([]float64, len(vecs))
	for i, v := range vecs {
		p, err := f.Classify(ctx, v)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (f Func) Close() error { return nil }

// Validate checks that probs has exactly want entries, each in [0,1].
func Validate(probs []float64, want int) error {
	if len(probs) != want {
		return fmt.Errorf("classifier returned %d probabilities for %d vectors", len(probs), want)
	}
	for i, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("classifier returned probability %v for row %d, outside [0,1]", p, i)
		}
	}
	return nil
}

// single unwraps a one-vector batch result.
func single(probs []float64, err error) (float64, error) {
	if err != nil {
		return 0, err
	}
	if len(probs) != 1 {
		return 0, fmt.Errorf("classifier returned %d probabilities for 1 vector", len(probs))
	}
	return probs[0], nil
}

// Timeout bounds every call to the wrapped Classifier. A call that outlives
// the deadline returns context.DeadlineExceeded even if the inner
// implementation ignores its context.
type Timeout struct {
	inner   Classifier
	timeout time.Duration
}

// WithTimeout wraps c so that each call runs under d. d <= 0 disables the bound.
func WithTimeout(c Classifier, d time.Duration) *Timeout {
	return &Timeout{inner: c, timeout: d}
}

func (t *Timeout) Classify(ctx context.Context, vec model.FeatureVector) (float64, error) {
	return single(t.ClassifyBatch(ctx, []model.FeatureVector{vec}))
}

func (t *Timeout) ClassifyBatch(ctx context.Context, vecs []model.FeatureVector) ([]float64, error) {
	if t.timeout <= 0 {
		return t.inner.ClassifyBatch(ctx, vecs)
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		probs []float64
		err   error
	}
	done := make(chan result, 1)
	go func() {
		probs, err := t.inner.ClassifyBatch(ctx, vecs)
		done <- result{probs, err}
	}()

	select {
	case r := <-done:
		return r.probs, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("classifier: no response within %s: %w", t.timeout, ctx.Err())
	}
}

func (t *Timeout) Close() error { return t.inner.Close() }
