package classifier

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/crimson-sun/riskscan/internal/model"
)

// DefaultOutputName is the probability tensor exported by the usual
// scikit-learn to ONNX converters when zipmap is disabled.
const DefaultOutputName = "probabilities"

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNX runs a binary fraud model exported to ONNX. The model takes one
// float32 input of shape [batch, features] and yields either [batch, 2]
// class probabilities (column 1 is the fraud class) or [batch, 1] / [batch]
// fraud probabilities.
type ONNX struct {
	session     *ort.DynamicAdvancedSession
	inputName   string
	outputName  string
	numFeatures int64
	width       int64 // output columns per row
	rank        int   // output tensor rank, 1 or 2
}

// ONNXOption configures an ONNX classifier.
type ONNXOption func(*onnxConfig)

type onnxConfig struct {
	libPath    string
	outputName string
	threads    int
}

// WithLibraryPath sets the ONNX Runtime shared library. By default it is
// looked up next to the model file.
func WithLibraryPath(p string) ONNXOption {
	return func(c *onnxConfig) { c.libPath = p }
}

// WithOutputName selects the output tensor holding probabilities.
func WithOutputName(name string) ONNXOption {
	return func(c *onnxConfig) { c.outputName = name }
}

// WithIntraOpThreads sets ONNX Runtime's intra-op thread count.
func WithIntraOpThreads(n int) ONNXOption {
	return func(c *onnxConfig) { c.threads = n }
}

// NewONNX loads the model at modelPath and checks that it accepts
// numFeatures inputs per row.
func NewONNX(modelPath string, numFeatures int, opts ...ONNXOption) (*ONNX, error) {
	cfg := onnxConfig{
		libPath:    filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so"),
		outputName: DefaultOutputName,
		threads:    4,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := initORT(cfg.libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}

	inputName, err := validateInput(inputs, int64(numFeatures))
	if err != nil {
		return nil, err
	}
	width, rank, err := validateOutput(outputs, cfg.outputName)
	if err != nil {
		return nil, err
	}

	sopts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer sopts.Destroy()
	sopts.SetIntraOpNumThreads(cfg.threads)
	sopts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputName},
		[]string{cfg.outputName},
		sopts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &ONNX{
		session:     session,
		inputName:   inputName,
		outputName:  cfg.outputName,
		numFeatures: int64(numFeatures),
		width:       width,
		rank:        rank,
	}, nil
}

// validateInput requires a single 2D float input whose feature dimension is
// either dynamic or equal to numFeatures.
func validateInput(inputs []ort.InputOutputInfo, numFeatures int64) (string, error) {
	if len(inputs) != 1 {
		return "", fmt.Errorf("onnx: expected 1 model input, got %d", len(inputs))
	}
	in := inputs[0]
	if len(in.Dimensions) != 2 {
		return "", fmt.Errorf("onnx: expected 2D input tensor, got %v", in.Dimensions)
	}
	if d := in.Dimensions[1]; d > 0 && d != numFeatures {
		return "", fmt.Errorf("onnx: model expects %d features, schema has %d", d, numFeatures)
	}
	return in.Name, nil
}

// validateOutput finds the named output and returns its per-row width and
// rank.
func validateOutput(outputs []ort.InputOutputInfo, name string) (int64, int, error) {
	for _, out := range outputs {
		if out.Name != name {
			continue
		}
		w, err := outputWidth(out.Dimensions)
		return w, len(out.Dimensions), err
	}
	return 0, 0, fmt.Errorf("onnx: model has no output %q", name)
}

func outputWidth(dims ort.Shape) (int64, error) {
	switch {
	case len(dims) == 1:
		return 1, nil
	case len(dims) == 2 && (dims[1] == 1 || dims[1] == 2):
		return dims[1], nil
	default:
		return 0, fmt.Errorf("onnx: expected output shape [batch], [batch,1] or [batch,2], got %v", dims)
	}
}

// fraudColumn extracts the fraud probability of each row from a flat output
// tensor of the given width.
func fraudColumn(data []float32, rows int, width int64) []float64 {
	probs := make([]float64, rows)
	for i := range rows {
		if width == 2 {
			probs[i] = float64(data[int64(i)*2+1])
		} else {
			probs[i] = float64(data[i])
		}
	}
	return probs
}

func (o *ONNX) Classify(ctx context.Context, vec model.FeatureVector) (float64, error) {
	return single(o.ClassifyBatch(ctx, []model.FeatureVector{vec}))
}

// ClassifyBatch runs a single inference call over the whole batch.
func (o *ONNX) ClassifyBatch(ctx context.Context, vecs []model.FeatureVector) ([]float64, error) {
	if len(vecs) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := int64(len(vecs))
	flat := make([]float32, 0, rows*o.numFeatures)
	for i, v := range vecs {
		if int64(len(v)) != o.numFeatures {
			return nil, fmt.Errorf("onnx: row %d has %d features, want %d", i, len(v), o.numFeatures)
		}
		for _, f := range v {
			flat = append(flat, float32(f))
		}
	}

	tIn, err := ort.NewTensor(ort.NewShape(rows, o.numFeatures), flat)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create %s tensor: %w", o.inputName, err)
	}
	defer tIn.Destroy()

	outShape := ort.NewShape(rows, o.width)
	if o.rank == 1 {
		outShape = ort.NewShape(rows)
	}
	tOut, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	if err := o.session.Run([]ort.Value{tIn}, []ort.Value{tOut}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	return fraudColumn(tOut.GetData(), len(vecs), o.width), nil
}

// Close releases the ONNX session.
func (o *ONNX) Close() error {
	return o.session.Destroy()
}
