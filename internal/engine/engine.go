package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/crimson-sun/riskscan/internal/engine/classifier"
	"github.com/crimson-sun/riskscan/internal/engine/normalize"
	"github.com/crimson-sun/riskscan/internal/engine/risk"
	"github.com/crimson-sun/riskscan/internal/engine/schema"
	"github.com/crimson-sun/riskscan/internal/logging"
	"github.com/crimson-sun/riskscan/internal/metrics"
	"github.com/crimson-sun/riskscan/internal/model"
)

// Engine orchestrates the normalize → vectorize → classify → bucket →
// aggregate pipeline. Any failure rejects the whole batch.
type Engine struct {
	normalizer *normalize.Normalizer
	classifier classifier.Classifier
}

// New creates an Engine with the provided components. The classifier should
// already carry its timeout bound.
func New(n *normalize.Normalizer, cls classifier.Classifier) *Engine {
	return &Engine{normalizer: n, classifier: cls}
}

// Schema returns the canonical schema the engine normalizes into.
func (e *Engine) Schema() *schema.Schema { return e.normalizer.Schema() }

// Process scores a batch and summarizes it into a report.
func (e *Engine) Process(ctx context.Context, raws []model.RawRecord) (model.RiskReport, error) {
	scored, err := e.Score(ctx, raws)
	if err != nil {
		return model.RiskReport{}, err
	}
	report := risk.Aggregate(scored)
	logging.L(ctx).Info("risk distribution",
		"high", report.Distribution[model.RiskHigh],
		"medium", report.Distribution[model.RiskMedium],
		"low", report.Distribution[model.RiskLow],
	)
	return report, nil
}

// Score normalizes and classifies a batch, returning one scored record per
// input in input order.
func (e *Engine) Score(ctx context.Context, raws []model.RawRecord) (scored []model.ScoredRecord, err error) {
	metrics.InFlightBatches.Inc()
	defer metrics.InFlightBatches.Dec()
	defer func() { metrics.BatchesTotal.WithLabelValues(outcome(err)).Inc() }()
	metrics.BatchRecords.Observe(float64(len(raws)))

	log := logging.L(ctx)
	log.Info("batch received", "records", len(raws))

	records, diag, err := e.normalizer.NormalizeBatch(ctx, raws)
	if err != nil {
		return nil, asBatchError(err, func(err error) error {
			return model.ComputeError(err, "Error processing data")
		})
	}
	reportDiagnostics(log, diag)

	features := e.Schema().Features()
	vecs := make([]model.FeatureVector, len(records))
	for i, rec := range records {
		if vecs[i], err = rec.Vector(features); err != nil {
			return nil, err
		}
	}

	probs, err := e.classify(ctx, vecs)
	if err != nil {
		return nil, err
	}

	scored = risk.Score(records, probs)
	for _, s := range scored {
		metrics.RecordsScoredTotal.WithLabelValues(string(s.Level)).Inc()
	}
	return scored, nil
}

func (e *Engine) classify(ctx context.Context, vecs []model.FeatureVector) ([]float64, error) {
	if len(vecs) == 0 {
		return []float64{}, nil
	}
	start := time.Now()
	probs, err := e.classifier.ClassifyBatch(ctx, vecs)
	metrics.ClassifierDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, model.ClassificationError(err, "Error generating predictions")
	}
	if err := classifier.Validate(probs, len(vecs)); err != nil {
		return nil, model.ClassificationError(err, "Error generating predictions")
	}
	return probs, nil
}

// Close releases the classifier.
func (e *Engine) Close() error {
	return e.classifier.Close()
}

// asBatchError keeps classified errors and wraps anything else with wrap.
func asBatchError(err error, wrap func(error) error) error {
	var me *model.Error
	if errors.As(err, &me) {
		return err
	}
	return wrap(err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return model.KindOf(err).String()
}

// reportDiagnostics logs a batch's non-fatal fallbacks once, aggregated,
// and counts them.
func reportDiagnostics(log *slog.Logger, d normalize.Diagnostics) {
	if len(d.Mapped) > 0 {
		log.Info("mapped alias columns", "columns", d.Mapped)
	}
	if len(d.Pruned) > 0 {
		log.Info("dropped artifact columns", "columns", d.Pruned)
		metrics.FallbacksTotal.WithLabelValues("pruned").Add(float64(sum(d.Pruned)))
	}
	if d.AmountCoercions > 0 {
		log.Warn("amount fallback coercion applied", "records", d.AmountCoercions)
		metrics.FallbacksTotal.WithLabelValues("amount").Add(float64(d.AmountCoercions))
	}
	if d.TimestampFallbacks > 0 {
		log.Warn("unparseable transaction dates; unix_time set to now", "records", d.TimestampFallbacks)
		metrics.FallbacksTotal.WithLabelValues("timestamp").Add(float64(d.TimestampFallbacks))
	}
	if d.AgeDefaults > 0 {
		log.Debug("age defaulted", "records", d.AgeDefaults)
		metrics.FallbacksTotal.WithLabelValues("age").Add(float64(d.AgeDefaults))
	}
	if len(d.Defaulted) > 0 {
		log.Warn("missing features defaulted to 0", "features", d.Defaulted)
		for f, n := range d.Defaulted {
			metrics.FeaturesDefaultedTotal.WithLabelValues(f).Add(float64(n))
		}
	}
}

func sum(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}
