package queue

import (
	"context"
	"testing"
	"time"

	"github.com/okian/recruitstat/internal/domain/model"
)

func job(id string) Job {
	return model.NewRenderJob(id, "<p>"+id+"</p>", nil, time.Time{})
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if c := q.Cap(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}

	if !q.Enqueue(ctx, job("job1")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	dctx, cancel := context.WithCancel(ctx)
	defer cancel()
	got := <-q.Dequeue(dctx)
	if got.ID != "job1" {
		t.Errorf("expected job1, got %v", got.ID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("job1")) || !q.Enqueue(ctx, job("job2")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, job("job3")) {
		t.Error("expected enqueue to fail when queue is full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("job1")) {
		t.Fatal("expected enqueue to succeed")
	}
	if err := q.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, job("job2")) {
		t.Error("expected enqueue to fail after close")
	}

	// Jobs already queued are still delivered, then the channel closes.
	ch := q.Dequeue(ctx)
	if got, ok := <-ch; !ok || got.ID != "job1" {
		t.Errorf("expected job1 before close, got %v %v", got.ID, ok)
	}
	if _, ok := <-ch; ok {
		t.Error("expected dequeue channel to be closed")
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, job("job1")) {
		t.Error("expected enqueue to fail with cancelled context")
	}
	if q.Cap() != defaultQueueCapacity {
		t.Errorf("expected default capacity %d, got %d", defaultQueueCapacity, q.Cap())
	}
}

func TestInMemoryQueue_DequeueStopsOnCancel(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	ch := q.Dequeue(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected no job")
		}
	case <-time.After(time.Second):
		t.Error("dequeue channel was not closed after cancel")
	}
}

func TestRenderJobRespondKeepsFirst(t *testing.T) {
	j := job("job1")
	j.Respond(model.RenderResult{Pages: 1})
	j.Respond(model.RenderResult{Pages: 2})
	if r := <-j.Reply; r.Pages != 1 {
		t.Errorf("expected first response, got %d pages", r.Pages)
	}

	var noReply Job
	noReply.Respond(model.RenderResult{}) // must not block
}
