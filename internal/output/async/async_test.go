package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/crimson-sun/riskscan/internal/model"
	"github.com/crimson-sun/riskscan/internal/output"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockOutput struct {
	mu      sync.Mutex
	results []output.Result
	closed  bool
	err     error         // if set, Write returns this
	delay   time.Duration // if >0, Write sleeps first
}

func (m *mockOutput) Write(_ context.Context, result output.Result) error {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	m.results = append(m.results, result)
	m.mu.Unlock()
	return m.err
}

func (m *mockOutput) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func (m *mockOutput) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

func testResult(source string) output.Result {
	return output.NewResult(source, model.RiskReport{
		Distribution: map[model.RiskLevel]int{model.RiskHigh: 0, model.RiskMedium: 1, model.RiskLow: 0},
	})
}

func TestResultsFlowThrough(t *testing.T) {
	inner := &mockOutput{}
	a := New(inner, WithBufferSize(16))

	for range 10 {
		if err := a.Write(context.Background(), testResult("flow")); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	if inner.count() != 10 {
		t.Errorf("got %d results, want 10", inner.count())
	}
	if !inner.closed {
		t.Error("inner output not closed")
	}
}

func TestBackpressureBlocks(t *testing.T) {
	// Inner output is slow; buffer size is 1.
	inner := &mockOutput{delay: 50 * time.Millisecond}
	a := New(inner, WithBufferSize(1))

	a.Write(context.Background(), testResult("first"))

	done := make(chan struct{})
	go func() {
		a.Write(context.Background(), testResult("second"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Write blocked indefinitely (expected eventual unblock via drain)")
	}

	a.Close()
}

func TestWriteHonorsContext(t *testing.T) {
	release := make(chan struct{})
	inner := &blockingOutput{started: make(chan struct{}), release: release}
	a := New(inner, WithBufferSize(1))

	// One result is held by the drain goroutine, one fills the buffer.
	a.Write(context.Background(), testResult("held"))
	<-inner.started
	a.Write(context.Background(), testResult("buffered"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := a.Write(ctx, testResult("rejected")); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Write error = %v, want DeadlineExceeded", err)
	}

	close(release)
	a.Close()
}

type blockingOutput struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (b *blockingOutput) Write(context.Context, output.Result) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil
}

func (b *blockingOutput) Close() error { return nil }

func TestDropOnFull(t *testing.T) {
	inner := &mockOutput{delay: 100 * time.Millisecond}
	a := New(inner, WithBufferSize(1), WithDropOnFull())

	for range 20 {
		if err := a.Write(context.Background(), testResult("burst")); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}
	a.Close()

	if inner.count() == 20 {
		t.Error("expected some results to be dropped in drop-on-full mode")
	}
	if inner.count() == 0 {
		t.Error("expected at least some results to be delivered")
	}
}

func TestCloseDrainsRemaining(t *testing.T) {
	inner := &mockOutput{}
	a := New(inner, WithBufferSize(100))

	for range 50 {
		a.Write(context.Background(), testResult("drain"))
	}
	a.Close()

	if inner.count() != 50 {
		t.Errorf("after Close, got %d results, want 50 (drain incomplete)", inner.count())
	}
}

func TestErrorCallbackInvoked(t *testing.T) {
	inner := &mockOutput{err: errors.New("write failed")}
	var errorCount atomic.Int64
	a := New(inner, WithBufferSize(16), WithOnError(func(error) {
		errorCount.Add(1)
	}))

	for range 5 {
		a.Write(context.Background(), testResult("failing"))
	}
	a.Close()

	if errorCount.Load() != 5 {
		t.Errorf("error callback called %d times, want 5", errorCount.Load())
	}
}

func TestNoGoroutineLeakAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := New(&mockOutput{}, WithBufferSize(16))
	a.Write(context.Background(), testResult("leak-check"))
	a.Close()
}

func TestCloseIdempotent(t *testing.T) {
	a := New(&mockOutput{}, WithBufferSize(16))
	a.Write(context.Background(), testResult("idempotent"))

	if err := a.Close(); err != nil {
		t.Fatalf("first Close error: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
}
