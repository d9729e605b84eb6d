package health

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRegistryEmpty(t *testing.T) {
	r := NewRegistry(0)
	healthy, statuses := r.CheckAll(context.Background())
	if !healthy {
		t.Fatal("empty registry should be healthy")
	}
	if len(statuses) != 0 {
		t.Fatalf("expected 0 statuses, got %d", len(statuses))
	}
}

func TestRegistryOneUnhealthy(t *testing.T) {
	r := NewRegistry(0)
	r.Register("schema", Static(true, ""))
	r.Register("classifier", FromError(func(context.Context) error {
		return errors.New("model not loaded")
	}))

	healthy, statuses := r.CheckAll(context.Background())
	if healthy {
		t.Fatal("registry with unhealthy checker should report unhealthy")
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[1].Name != "classifier" || statuses[1].Detail != "model not loaded" {
		t.Fatalf("unexpected status: %+v", statuses[1])
	}
	if statuses[0].Name != "schema" {
		t.Fatalf("registered name not filled in: %+v", statuses[0])
	}
}

func TestRegistryAppliesTimeout(t *testing.T) {
	r := NewRegistry(10 * time.Millisecond)
	r.Register("slow", FromError(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	healthy, statuses := r.CheckAll(context.Background())
	if healthy {
		t.Fatal("timed-out checker should be unhealthy")
	}
	if statuses[0].Detail != context.DeadlineExceeded.Error() {
		t.Fatalf("detail = %q", statuses[0].Detail)
	}
}

func TestRegistryConcurrentRegisterAndCheck(t *testing.T) {
	r := NewRegistry(0)
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register("x", Static(true, ""))
		}()
		go func() {
			defer wg.Done()
			r.CheckAll(context.Background())
		}()
	}
	wg.Wait()

	_, statuses := r.CheckAll(context.Background())
	if len(statuses) != 10 {
		t.Fatalf("expected 10 statuses, got %d", len(statuses))
	}
}
