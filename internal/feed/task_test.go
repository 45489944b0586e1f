package feed

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTask_StartReplacesRunningGoroutine(t *testing.T) {
	var task Task
	var running int32
	var peak int32

	loop := func(ctx context.Context) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		<-ctx.Done()
		atomic.AddInt32(&running, -1)
	}

	for i := 0; i < 5; i++ {
		task.Start(loop)
	}
	task.Stop()

	if p := atomic.LoadInt32(&peak); p != 1 {
		t.Fatalf("peak concurrent loops = %d, want 1", p)
	}
	if r := atomic.LoadInt32(&running); r != 0 {
		t.Fatalf("loops still running after Stop: %d", r)
	}
}

func TestTask_StopIsIdempotent(t *testing.T) {
	var task Task
	task.Stop()
	task.Stop()
	if task.Running() {
		t.Fatalf("idle task reports running")
	}

	task.Start(func(ctx context.Context) { <-ctx.Done() })
	if !task.Running() {
		t.Fatalf("started task reports not running")
	}
	task.Stop()
	task.Stop()
	if task.Running() {
		t.Fatalf("stopped task reports running")
	}
}

func TestTask_StopCancelsPendingRetry(t *testing.T) {
	var task Task
	fired := make(chan struct{}, 1)

	task.Start(func(ctx context.Context) {
		if Sleep(ctx, time.Hour) {
			fired <- struct{}{}
		}
	})

	done := make(chan struct{})
	go func() {
		task.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Stop did not return while a retry delay was pending")
	}
	select {
	case <-fired:
		t.Fatalf("stale retry fired after Stop")
	default:
	}
}

func TestSleep(t *testing.T) {
	if !Sleep(context.Background(), time.Millisecond) {
		t.Fatalf("expected full delay to elapse")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if Sleep(ctx, time.Hour) {
		t.Fatalf("expected cancellation to win")
	}
}
