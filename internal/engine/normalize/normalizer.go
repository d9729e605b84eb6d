// Package normalize turns heterogeneous upstream records into records that
// carry every feature the classifier expects.
//
// Each stage is a pure function from one record to a new record; the
// Normalizer chains them per record and fans the batch out over a bounded
// worker pool:
//
//	reconcile → prune → card/amount → category/gender/state → temporal → complete
package normalize

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/riskscan/internal/engine/schema"
	"github.com/crimson-sun/riskscan/internal/model"
)

// Diagnostics counts the non-fatal fallbacks taken across a batch. Maps are
// keyed by column or feature name.
type Diagnostics struct {
	Mapped             map[string]int // canonical columns populated from an alias
	Pruned             map[string]int // artifact columns dropped
	Defaulted          map[string]int // required features filled with 0
	AmountCoercions    int
	TimestampFallbacks int
	AgeDefaults        int
}

func (d *Diagnostics) add(o Diagnostics) {
	d.Mapped = addCounts(d.Mapped, o.Mapped)
	d.Pruned = addCounts(d.Pruned, o.Pruned)
	d.Defaulted = addCounts(d.Defaulted, o.Defaulted)
	d.AmountCoercions += o.AmountCoercions
	d.TimestampFallbacks += o.TimestampFallbacks
	d.AgeDefaults += o.AgeDefaults
}

func addCounts(dst, src map[string]int) map[string]int {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]int, len(src))
	}
	for k, n := range src {
		dst[k] += n
	}
	return dst
}

func countOnce(names []string) map[string]int {
	if len(names) == 0 {
		return nil
	}
	m := make(map[string]int, len(names))
	for _, n := range names {
		m[n]++
	}
	return m
}

// Normalizer applies the pipeline to whole batches.
type Normalizer struct {
	schema  *schema.Schema
	clock   func() time.Time
	workers int
	strict  bool
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock overrides the time source used for age derivation and the
// unix_time fallback.
func WithClock(clock func() time.Time) Option {
	return func(n *Normalizer) { n.clock = clock }
}

// WithWorkers bounds how many records are normalized concurrently.
// Values <= 0 mean GOMAXPROCS.
func WithWorkers(w int) Option {
	return func(n *Normalizer) { n.workers = w }
}

// WithStrictTimestamps rejects records whose transaction date cannot be
// parsed instead of falling back to the current time.
func WithStrictTimestamps(strict bool) Option {
	return func(n *Normalizer) { n.strict = strict }
}

// New creates a Normalizer over s.
func New(s *schema.Schema, opts ...Option) *Normalizer {
	n := &Normalizer{schema: s, clock: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	if n.workers <= 0 {
		n.workers = runtime.GOMAXPROCS(0)
	}
	return n
}

// Schema returns the schema the Normalizer was built with.
func (n *Normalizer) Schema() *schema.Schema { return n.schema }

// NormalizeRecord runs every stage over one record. index is the record's
// position in its batch; now is the batch's reference time.
func (n *Normalizer) NormalizeRecord(index int, raw model.RawRecord, now time.Time) (model.NormalizedRecord, Diagnostics, error) {
	var d Diagnostics

	r, mapped := Reconcile(raw, n.schema.Aliases())
	d.Mapped = countOnce(mapped)

	r, pruned := Prune(r)
	d.Pruned = countOnce(pruned)

	r = NormalizeCardNumber(r)
	r, coerced := NormalizeAmount(r)
	if coerced {
		d.AmountCoercions++
	}

	r = EncodeCategory(r, n.schema)
	r = EncodeGender(r)
	r = EncodeState(r, n.schema)

	r, tr, err := DeriveTemporal(r, index, n.schema, now, n.strict)
	if err != nil {
		return model.NormalizedRecord{}, d, err
	}
	if tr.timestampFallback {
		d.TimestampFallbacks++
	}
	if tr.ageDefaulted {
		d.AgeDefaults++
	}

	r, defaulted := Complete(r, n.schema.Features())
	d.Defaulted = countOnce(defaulted)

	return model.NormalizedRecord{Index: index, Fields: r}, d, nil
}

// NormalizeBatch normalizes every record of a batch, preserving order. The
// first failing record fails the whole batch. A panic in any stage is
// reported as a compute error.
func (n *Normalizer) NormalizeBatch(ctx context.Context, raws []model.RawRecord) ([]model.NormalizedRecord, Diagnostics, error) {
	now := n.clock()
	out := make([]model.NormalizedRecord, len(raws))
	diags := make([]Diagnostics, len(raws))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(n.workers)
	for i, raw := range raws {
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = model.ComputeError(fmt.Errorf("%v", p), "row %d: feature derivation failed", i)
				}
			}()
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, d, err := n.NormalizeRecord(i, raw, now)
			if err != nil {
				return err
			}
			out[i] = rec
			diags[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Diagnostics{}, err
	}

	var total Diagnostics
	for _, d := range diags {
		total.add(d)
	}
	return out, total, nil
}
