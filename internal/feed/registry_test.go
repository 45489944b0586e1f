package feed

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRegistry_Broadcast_FailingSubscriberDoesNotStopOthers(t *testing.T) {
	var failures []string
	r := NewRegistry[int](func(id string, err error) {
		failures = append(failures, id)
	})

	var got [4]int32
	for i := 0; i < 4; i++ {
		i := i
		r.Subscribe(fmt.Sprintf("v%d", i), func(v int) error {
			if i == 2 {
				return errors.New("viewer closed")
			}
			atomic.AddInt32(&got[i], int32(v))
			return nil
		})
	}

	if n := r.Broadcast(5); n != 3 {
		t.Fatalf("delivered = %d, want 3", n)
	}
	for i, v := range got {
		if i == 2 {
			continue
		}
		if v != 5 {
			t.Fatalf("subscriber %d got %d, want 5", i, v)
		}
	}
	if len(failures) != 1 || failures[0] != "v2" {
		t.Fatalf("failures = %v", failures)
	}
	if r.Len() != 4 {
		t.Fatalf("failing subscriber was removed: len = %d", r.Len())
	}
}

func TestRegistry_Broadcast_RecoversPanickingSubscriber(t *testing.T) {
	var failed int
	r := NewRegistry[int](func(string, error) { failed++ })

	var ok int
	r.Subscribe("panics", func(int) error { panic("boom") })
	r.Subscribe("fine", func(int) error { ok++; return nil })

	if n := r.Broadcast(1); n != 1 {
		t.Fatalf("delivered = %d, want 1", n)
	}
	if ok != 1 || failed != 1 {
		t.Fatalf("ok=%d failed=%d", ok, failed)
	}
}

func TestRegistry_Unsubscribe_IdempotentAndScoped(t *testing.T) {
	r := NewRegistry[int](nil)

	unsubOld := r.Subscribe("viewer", func(int) error { return nil })
	var newGot int
	unsubNew := r.Subscribe("viewer", func(v int) error { newGot = v; return nil })

	// The stale handle must not remove the replacement.
	unsubOld()
	unsubOld()
	if r.Len() != 1 {
		t.Fatalf("len = %d, want 1", r.Len())
	}
	r.Broadcast(7)
	if newGot != 7 {
		t.Fatalf("replacement did not receive broadcast")
	}

	unsubNew()
	unsubNew()
	if r.Len() != 0 {
		t.Fatalf("len = %d, want 0", r.Len())
	}
}

func TestRegistry_Send(t *testing.T) {
	r := NewRegistry[string](nil)
	var got string
	r.Subscribe("a", func(v string) error { got = v; return nil })

	if !r.Send("a", "hello") || got != "hello" {
		t.Fatalf("send to a failed, got %q", got)
	}
	if r.Send("missing", "x") {
		t.Fatalf("send to unknown id reported success")
	}
}

func TestRegistry_ConcurrentSubscribeAndBroadcast(t *testing.T) {
	r := NewRegistry[int](nil)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			unsub := r.Subscribe(fmt.Sprintf("s%d", i), func(int) error { return nil })
			unsub()
		}(i)
		go func(i int) {
			defer wg.Done()
			r.Broadcast(i)
		}(i)
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Fatalf("len = %d, want 0", r.Len())
	}
}
