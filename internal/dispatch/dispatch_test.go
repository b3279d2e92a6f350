package dispatch

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPoolRunsSubmittedJobs(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[uuid.UUID]bool)
	done := make(chan struct{}, 3)

	pool := NewPool(2, 8, func(_ context.Context, id uuid.UUID) {
		mu.Lock()
		seen[id] = true
		mu.Unlock()
		done <- struct{}{}
	}, discard())
	pool.Start()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		if !pool.Submit(id) {
			t.Fatalf("submit rejected for %s", id)
		}
	}

	for range ids {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}

	if err := pool.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, id := range ids {
		if !seen[id] {
			t.Errorf("job never ran for %s", id)
		}
	}
}

func TestPoolSubmitRejectsWhenFull(t *testing.T) {
	block := make(chan struct{})

	pool := NewPool(1, 1, func(_ context.Context, _ uuid.UUID) {
		<-block
	}, discard())
	pool.Start()
	defer func() {
		close(block)
		pool.Shutdown(context.Background())
	}()

	// First submission is picked up by the worker, second fills the queue.
	// Keep submitting until the buffer is provably full.
	accepted := 0
	for i := 0; i < 10; i++ {
		if pool.Submit(uuid.New()) {
			accepted++
			continue
		}
		if accepted == 0 {
			t.Fatal("queue rejected before accepting anything")
		}
		return
	}
	t.Fatal("queue never filled")
}

func TestPoolSubmitRejectsAfterShutdown(t *testing.T) {
	pool := NewPool(1, 4, func(_ context.Context, _ uuid.UUID) {}, discard())
	pool.Start()

	if err := pool.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if pool.Submit(uuid.New()) {
		t.Error("submit must fail after shutdown")
	}
}

func TestPoolSubmitDuringShutdown(t *testing.T) {
	block := make(chan struct{})

	pool := NewPool(1, 2, func(_ context.Context, _ uuid.UUID) {
		<-block
	}, discard())
	pool.Start()

	// Occupy the worker and fill the queue so Shutdown blocks on drain.
	for i := 0; i < 3; i++ {
		pool.Submit(uuid.New())
	}

	shutdownDone := make(chan error, 1)
	go func() {
		shutdownDone <- pool.Shutdown(context.Background())
	}()

	// Concurrent submissions must be rejected or queued, never panic.
	for i := 0; i < 50; i++ {
		pool.Submit(uuid.New())
		time.Sleep(time.Millisecond)
	}

	close(block)
	if err := <-shutdownDone; err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if pool.Submit(uuid.New()) {
		t.Error("submit must fail once shutdown completed")
	}
}

func TestPoolShutdownDrainsQueue(t *testing.T) {
	var mu sync.Mutex
	count := 0

	pool := NewPool(1, 8, func(_ context.Context, _ uuid.UUID) {
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		count++
		mu.Unlock()
	}, discard())
	pool.Start()

	for i := 0; i < 5; i++ {
		if !pool.Submit(uuid.New()) {
			t.Fatalf("submit %d rejected", i)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 5 {
		t.Errorf("expected 5 drained jobs, got %d", count)
	}
}

func TestPoolShutdownHonorsDeadline(t *testing.T) {
	started := make(chan struct{})
	block := make(chan struct{})
	defer close(block)

	pool := NewPool(1, 4, func(ctx context.Context, _ uuid.UUID) {
		close(started)
		select {
		case <-block:
		case <-ctx.Done():
		}
	}, discard())
	pool.Start()
	pool.Submit(uuid.New())
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := pool.Shutdown(ctx); err == nil {
		t.Error("expected deadline error from shutdown")
	}
}

func TestPoolDefaults(t *testing.T) {
	pool := NewPool(0, 0, func(_ context.Context, _ uuid.UUID) {}, discard())
	if pool.workers != 1 {
		t.Errorf("expected 1 worker, got %d", pool.workers)
	}
	if cap(pool.queue) != 2 {
		t.Errorf("expected capacity 2, got %d", cap(pool.queue))
	}
	pool.Start()
	pool.Shutdown(context.Background())
}
