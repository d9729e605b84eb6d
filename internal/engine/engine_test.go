package engine

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/crimson-sun/riskscan/internal/engine/classifier"
	"github.com/crimson-sun/riskscan/internal/engine/normalize"
	"github.com/crimson-sun/riskscan/internal/engine/schema"
	"github.com/crimson-sun/riskscan/internal/engine/testdata"
	"github.com/crimson-sun/riskscan/internal/ingest"
	"github.com/crimson-sun/riskscan/internal/model"
)

const modelPath = "../../models/fraud_model.onnx"

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func skipWithoutModel(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		t.Skip("ONNX model not available, skipping integration test")
	}
}

// amountScorer scores by amount alone: amt/250 capped at 1. amt is the
// first feature of the default schema.
func amountScorer(vec model.FeatureVector) (float64, error) {
	return math.Min(vec[0]/250, 1), nil
}

func newTestEngine(t *testing.T, cls classifier.Classifier) *Engine {
	t.Helper()
	n := normalize.New(schema.Default(), normalize.WithClock(func() time.Time { return fixedNow }))
	return New(n, cls)
}

func loadSample(t *testing.T) []model.RawRecord {
	t.Helper()
	b, err := ingest.Decode(testdata.TransactionsCSV, "transactions.csv")
	if err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	return b.Records
}

func TestScoreSampleMatchesExpectations(t *testing.T) {
	eng := newTestEngine(t, classifier.Func(amountScorer))

	scored, err := eng.Score(context.Background(), loadSample(t))
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	expectations, err := testdata.LoadExpectations()
	if err != nil {
		t.Fatal(err)
	}
	if len(scored) != len(expectations) {
		t.Fatalf("scored %d records, want %d", len(scored), len(expectations))
	}

	for _, want := range expectations {
		s := scored[want.Row]
		f := s.Fields
		if s.Index != want.Row {
			t.Errorf("row %d: index %d, order not preserved", want.Row, s.Index)
		}
		if got := f.Text("id", ""); got != want.ID {
			t.Errorf("row %d (%s): id = %q, want %q", want.Row, want.Description, got, want.ID)
		}
		if got := f.Text("cc_num", ""); got != want.CCNum {
			t.Errorf("row %d (%s): cc_num = %q, want %q", want.Row, want.Description, got, want.CCNum)
		}
		if got := f.Float("amt", -1); got != want.Amt {
			t.Errorf("row %d (%s): amt = %v, want %v", want.Row, want.Description, got, want.Amt)
		}
		for i := 1; i <= 13; i++ {
			wantFlag := 0.0
			if i == want.CategorySlot {
				wantFlag = 1
			}
			if got := f.Float(schema.CategorySlot(i), -1); got != wantFlag {
				t.Errorf("row %d (%s): category_%d = %v, want %v", want.Row, want.Description, i, got, wantFlag)
			}
		}
		if got := f.Float("gender_M", -1); got != float64(want.GenderM) {
			t.Errorf("row %d: gender_M = %v, want %d", want.Row, got, want.GenderM)
		}
		for _, code := range schema.DefaultStateCodes() {
			wantFlag := 0.0
			if code == want.State {
				wantFlag = 1
			}
			if got := f.Float(schema.StateFlag(code), -1); got != wantFlag {
				t.Errorf("row %d (%s): state_%s = %v, want %v", want.Row, want.Description, code, got, wantFlag)
			}
		}
		if want.Hour < 0 {
			if got := f.Float("unix_time", 0); int64(got) != fixedNow.Unix() {
				t.Errorf("row %d: unix_time = %v, want fallback to now", want.Row, got)
			}
		} else if got := f.Float("hour", -1); got != float64(want.Hour) {
			t.Errorf("row %d: hour = %v, want %d", want.Row, got, want.Hour)
		}
		if f.Has("Unnamed: 0") {
			t.Errorf("row %d: artifact column survived", want.Row)
		}
	}
}

func TestProcessSampleReport(t *testing.T) {
	eng := newTestEngine(t, classifier.Func(amountScorer))

	report, err := eng.Process(context.Background(), loadSample(t))
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	// amt/250: 1204.50 → 1, 220.11 → 0.88 are High; 107.23 → 0.43,
	// 198.39 → 0.79 (High); the rest are Low.
	want := map[model.RiskLevel]int{model.RiskHigh: 3, model.RiskMedium: 1, model.RiskLow: 6}
	for level, n := range want {
		if got := report.Distribution[level]; got != n {
			t.Errorf("%s = %d, want %d", level, got, n)
		}
	}
	if report.Total() != 10 {
		t.Errorf("Total() = %d, want 10", report.Total())
	}
	if len(report.Probabilities) != 8 {
		t.Errorf("probability sample has %d entries, want 8", len(report.Probabilities))
	}
	if len(report.High) != 3 || report.High[0].ID != "TX-5" {
		t.Errorf("high list = %+v", report.High)
	}
	if len(report.Low) != 5 {
		t.Errorf("low list has %d entries, want 5", len(report.Low))
	}
	for i := 1; i < len(report.Low); i++ {
		if report.Low[i].FraudProbability > report.Low[i-1].FraudProbability {
			t.Errorf("low list not sorted descending at %d", i)
		}
	}
}

func TestProcessEmptyBatch(t *testing.T) {
	called := false
	eng := newTestEngine(t, classifier.Func(func(model.FeatureVector) (float64, error) {
		called = true
		return 0, nil
	}))

	report, err := eng.Process(context.Background(), nil)
	if err != nil {
		t.Fatalf("Process(nil) error: %v", err)
	}
	if report.Total() != 0 || len(report.High)+len(report.Medium)+len(report.Low) != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
	if called {
		t.Error("classifier called for an empty batch")
	}
}

func TestProcessRejectsNonNumericFeature(t *testing.T) {
	eng := newTestEngine(t, classifier.Func(amountScorer))
	raws := []model.RawRecord{
		{"amt": model.TextValue("1"), "zip": model.TextValue("12345")},
		{"amt": model.TextValue("1"), "zip": model.TextValue("SW1A 1AA"), "lat": model.TextValue("north")},
	}

	_, err := eng.Process(context.Background(), raws)
	var me *model.Error
	if !errors.As(err, &me) || me.Kind != model.KindSchema {
		t.Fatalf("expected schema error, got %v", err)
	}
	if len(me.Features) != 2 || me.Features[0] != "zip" || me.Features[1] != "lat" {
		t.Errorf("features = %v, want [zip lat] in schema order", me.Features)
	}
	if me.Kind.Status() != 400 {
		t.Errorf("status = %d, want 400", me.Kind.Status())
	}
}

func TestProcessClassifierFailure(t *testing.T) {
	boom := errors.New("model crashed")
	eng := newTestEngine(t, classifier.Func(func(model.FeatureVector) (float64, error) {
		return 0, boom
	}))

	_, err := eng.Process(context.Background(), loadSample(t))
	if model.KindOf(err) != model.KindClassification {
		t.Fatalf("expected classification error, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestProcessRejectsOutOfRangeProbability(t *testing.T) {
	eng := newTestEngine(t, classifier.Func(func(vec model.FeatureVector) (float64, error) {
		return vec[0], nil // raw amounts, far above 1
	}))

	_, err := eng.Process(context.Background(), loadSample(t))
	if model.KindOf(err) != model.KindClassification {
		t.Fatalf("expected classification error, got %v", err)
	}
}

type stalled struct{}

func (stalled) Classify(ctx context.Context, _ model.FeatureVector) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (stalled) ClassifyBatch(ctx context.Context, _ []model.FeatureVector) ([]float64, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalled) Close() error { return nil }

func TestProcessClassifierTimeout(t *testing.T) {
	eng := newTestEngine(t, classifier.WithTimeout(stalled{}, 20*time.Millisecond))

	_, err := eng.Process(context.Background(), loadSample(t))
	if model.KindOf(err) != model.KindClassification {
		t.Fatalf("expected classification error, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded in chain: %v", err)
	}
}

func TestProcessWithONNXModel(t *testing.T) {
	skipWithoutModel(t)

	s := schema.Default()
	cls, err := classifier.NewONNX(modelPath, s.NumFeatures())
	if err != nil {
		t.Fatalf("failed to load model: %v", err)
	}
	eng := newTestEngine(t, cls)
	defer eng.Close()

	report, err := eng.Process(context.Background(), loadSample(t))
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if report.Total() != 10 {
		t.Errorf("Total() = %d, want 10", report.Total())
	}
	t.Logf("distribution: %v", report.Distribution)
}
