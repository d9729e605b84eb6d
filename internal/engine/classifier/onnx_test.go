package classifier

import (
	"context"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/crimson-sun/riskscan/internal/model"
)

const testModelPath = "../../../models/fraud_model.onnx"

// testNumFeatures matches the built-in schema's feature list.
const testNumFeatures = 78

func skipIfNoModel(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(testModelPath); os.IsNotExist(err) {
		t.Skip("model file not found; place fraud_model.onnx under models/")
	}
}

func TestOutputWidth(t *testing.T) {
	tests := []struct {
		dims ort.Shape
		want int64
		ok   bool
	}{
		{ort.NewShape(-1), 1, true},
		{ort.NewShape(-1, 1), 1, true},
		{ort.NewShape(-1, 2), 2, true},
		{ort.NewShape(-1, 3), 0, false},
		{ort.NewShape(-1, 2, 1), 0, false},
	}
	for _, tt := range tests {
		got, err := outputWidth(tt.dims)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("outputWidth(%v) = %d, %v; want %d, ok=%v", tt.dims, got, err, tt.want, tt.ok)
		}
	}
}

func TestFraudColumn(t *testing.T) {
	twoCol := []float32{0.75, 0.25, 0.5, 0.5, 0, 1}
	if diff := cmp.Diff([]float64{0.25, 0.5, 1}, fraudColumn(twoCol, 3, 2)); diff != "" {
		t.Errorf("two-column (-want +got):\n%s", diff)
	}
	oneCol := []float32{0.125, 0.875}
	if diff := cmp.Diff([]float64{0.125, 0.875}, fraudColumn(oneCol, 2, 1)); diff != "" {
		t.Errorf("one-column (-want +got):\n%s", diff)
	}
}

func TestValidateInput(t *testing.T) {
	good := []ort.InputOutputInfo{{Name: "float_input", Dimensions: ort.NewShape(-1, 78)}}
	if name, err := validateInput(good, 78); err != nil || name != "float_input" {
		t.Errorf("validateInput = %q, %v", name, err)
	}
	dynamic := []ort.InputOutputInfo{{Name: "x", Dimensions: ort.NewShape(-1, -1)}}
	if _, err := validateInput(dynamic, 78); err != nil {
		t.Errorf("dynamic feature dim rejected: %v", err)
	}
	wrong := []ort.InputOutputInfo{{Name: "x", Dimensions: ort.NewShape(-1, 10)}}
	if _, err := validateInput(wrong, 78); err == nil {
		t.Error("expected feature-count mismatch error")
	}
}

func TestONNXClassifyBatch(t *testing.T) {
	skipIfNoModel(t)

	c, err := NewONNX(testModelPath, testNumFeatures)
	if err != nil {
		t.Fatalf("failed to load model: %v", err)
	}
	defer c.Close()

	vecs := []model.FeatureVector{
		make(model.FeatureVector, testNumFeatures),
		make(model.FeatureVector, testNumFeatures),
	}
	vecs[1][0] = 4999.99

	probs, err := c.ClassifyBatch(context.Background(), vecs)
	if err != nil {
		t.Fatalf("inference failed: %v", err)
	}
	if err := Validate(probs, len(vecs)); err != nil {
		t.Fatal(err)
	}
	t.Logf("probabilities: %v", probs)
}

func TestONNXRejectsWrongWidth(t *testing.T) {
	skipIfNoModel(t)

	c, err := NewONNX(testModelPath, testNumFeatures)
	if err != nil {
		t.Fatalf("failed to load model: %v", err)
	}
	defer c.Close()

	if _, err := c.Classify(context.Background(), model.FeatureVector{1, 2}); err == nil {
		t.Error("expected error for short vector")
	}
}
