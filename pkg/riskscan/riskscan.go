package riskscan

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cast"

	"github.com/crimson-sun/riskscan/internal/engine"
	"github.com/crimson-sun/riskscan/internal/engine/classifier"
	"github.com/crimson-sun/riskscan/internal/engine/normalize"
	"github.com/crimson-sun/riskscan/internal/engine/schema"
	"github.com/crimson-sun/riskscan/internal/ingest"
	"github.com/crimson-sun/riskscan/internal/model"
)

// Scanner scores transaction batches. Safe for concurrent use.
type Scanner struct {
	engine *engine.Engine
	schema *schema.Schema
}

// New creates a Scanner. With no scoring option it loads
// models/fraud_model.onnx, which takes a moment; create once and reuse.
func New(opts ...Option) (*Scanner, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := schema.Default()
	if o.schemaPath != "" {
		var err error
		if s, err = schema.Load(o.schemaPath); err != nil {
			return nil, fmt.Errorf("riskscan: %w", err)
		}
	}

	cls, err := newClassifier(o, s)
	if err != nil {
		return nil, fmt.Errorf("riskscan: %w", err)
	}

	nopts := []normalize.Option{
		normalize.WithWorkers(o.workers),
		normalize.WithStrictTimestamps(o.strict),
	}
	if o.clock != nil {
		nopts = append(nopts, normalize.WithClock(o.clock))
	}
	eng := engine.New(normalize.New(s, nopts...), classifier.WithTimeout(cls, o.timeout))
	return &Scanner{engine: eng, schema: s}, nil
}

func newClassifier(o options, s *schema.Schema) (classifier.Classifier, error) {
	switch {
	case o.scorer != nil:
		return classifier.Func(func(vec model.FeatureVector) (float64, error) {
			return o.scorer(vec)
		}), nil
	case o.remoteURL != "":
		var ropts []classifier.RemoteOption
		if o.remoteToken != "" {
			ropts = append(ropts, classifier.WithToken(o.remoteToken))
		}
		return classifier.NewRemote(o.remoteURL, s.Features(), ropts...), nil
	default:
		copts := []classifier.ONNXOption{classifier.WithOutputName(o.outputName)}
		if o.libraryPath != "" {
			copts = append(copts, classifier.WithLibraryPath(o.libraryPath))
		}
		return classifier.NewONNX(resolveModelPath(o), s.NumFeatures(), copts...)
	}
}

// Features returns the feature order the classifier receives.
func (s *Scanner) Features() []string { return s.schema.Features() }

// Score decodes a CSV, JSON or NDJSON payload and scores it. name is only a
// format hint and may be empty.
func (s *Scanner) Score(ctx context.Context, r io.Reader, name string) (Report, error) {
	batch, err := ingest.Read(r, name, ingest.DefaultMaxBytes)
	if err != nil {
		return Report{}, err
	}
	return s.process(ctx, batch.Records)
}

// ScoreFile scores the file at path.
func (s *Scanner) ScoreFile(ctx context.Context, path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("riskscan: %w", err)
	}
	defer f.Close()
	return s.Score(ctx, f, filepath.Base(path))
}

// ScoreRecords scores already-decoded records. Values may be strings,
// numbers, booleans or nil; anything else is formatted as text.
func (s *Scanner) ScoreRecords(ctx context.Context, records []map[string]any) (Report, error) {
	raws := make([]model.RawRecord, len(records))
	for i, rec := range records {
		raw := make(model.RawRecord, len(rec))
		for k, v := range rec {
			raw[k] = toValue(v)
		}
		raws[i] = raw
	}
	return s.process(ctx, raws)
}

// Close releases model resources.
func (s *Scanner) Close() error {
	return s.engine.Close()
}

func (s *Scanner) process(ctx context.Context, raws []model.RawRecord) (Report, error) {
	r, err := s.engine.Process(ctx, raws)
	if err != nil {
		return Report{}, err
	}
	return reportFromModel(r), nil
}

func toValue(v any) model.Value {
	switch x := v.(type) {
	case nil:
		return model.Value{}
	case string:
		return model.TextValue(x)
	case bool:
		if x {
			return model.IntValue(1)
		}
		return model.IntValue(0)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return model.IntValue(cast.ToInt64(x))
	case float32, float64:
		return model.NumberValue(cast.ToFloat64(x))
	default:
		return model.TextValue(cast.ToString(x))
	}
}
