package riskscan

import (
	"path/filepath"
	"time"
)

// ScoreFunc scores one feature vector. Features arrive in the order
// reported by Scanner.Features.
type ScoreFunc func(features []float64) (float64, error)

type options struct {
	modelDir    string
	modelPath   string
	outputName  string
	libraryPath string
	remoteURL   string
	remoteToken string
	scorer      ScoreFunc
	schemaPath  string
	timeout     time.Duration
	workers     int
	strict      bool
	clock       func() time.Time
}

// Option configures a Scanner.
type Option func(*options)

// WithModelDir sets the directory containing fraud_model.onnx.
func WithModelDir(dir string) Option {
	return func(o *options) { o.modelDir = dir }
}

// WithModelPath sets an explicit ONNX model path. Takes precedence over
// WithModelDir.
func WithModelPath(path string) Option {
	return func(o *options) { o.modelPath = path }
}

// WithModelOutput sets the name of the probability output tensor.
// Default: "probabilities".
func WithModelOutput(name string) Option {
	return func(o *options) { o.outputName = name }
}

// WithLibraryPath sets the ONNX Runtime shared library location.
func WithLibraryPath(path string) Option {
	return func(o *options) { o.libraryPath = path }
}

// WithRemote scores through an HTTP model endpoint instead of a local model.
func WithRemote(url, token string) Option {
	return func(o *options) {
		o.remoteURL = url
		o.remoteToken = token
	}
}

// WithScorer scores with an in-process function instead of a model.
func WithScorer(f ScoreFunc) Option {
	return func(o *options) { o.scorer = f }
}

// WithSchemaFile loads a YAML schema override.
func WithSchemaFile(path string) Option {
	return func(o *options) { o.schemaPath = path }
}

// WithTimeout bounds every classifier call. Zero disables the bound.
// Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithWorkers sets the normalization fan-out. Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithStrictTimestamps rejects records whose transaction time cannot be
// parsed instead of stamping them with the current time.
func WithStrictTimestamps() Option {
	return func(o *options) { o.strict = true }
}

// WithClock sets the time source used for the timestamp fallback.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

func defaultOptions() options {
	return options{
		outputName: "probabilities",
		timeout:    10 * time.Second,
	}
}

// resolveModelPath determines the ONNX model path. Explicit paths take
// precedence over modelDir.
func resolveModelPath(o options) string {
	if o.modelPath != "" {
		return o.modelPath
	}
	dir := o.modelDir
	if dir == "" {
		dir = "models"
	}
	return filepath.Join(dir, "fraud_model.onnx")
}
