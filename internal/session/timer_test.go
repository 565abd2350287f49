package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRollTimer_Fires(t *testing.T) {
	var mu sync.Mutex
	var fired []string
	rt := newRollTimer(func(id string) {
		mu.Lock()
		fired = append(fired, id)
		mu.Unlock()
	})
	rt.Start("a", 20*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 1 || fired[0] != "a" {
		t.Fatalf("expected callback for a once, got %v", fired)
	}
}

func TestRollTimer_Stop_PreventsCallback(t *testing.T) {
	var called atomic.Int32
	rt := newRollTimer(func(string) { called.Add(1) })
	rt.Start("a", 30*time.Millisecond)
	rt.Stop()
	time.Sleep(60 * time.Millisecond)
	if called.Load() != 0 {
		t.Fatalf("expected callback not called, got %d", called.Load())
	}
}

func TestRollTimer_Start_ReplacesEarlierArm(t *testing.T) {
	var called atomic.Int32
	var last atomic.Value
	rt := newRollTimer(func(id string) {
		called.Add(1)
		last.Store(id)
	})
	rt.Start("a", 30*time.Millisecond)
	time.Sleep(15 * time.Millisecond)
	rt.Start("b", 30*time.Millisecond)

	// a would have fired by now.
	time.Sleep(20 * time.Millisecond)
	if called.Load() != 0 {
		t.Fatalf("expected no callback at 35ms, got %d", called.Load())
	}
	time.Sleep(35 * time.Millisecond)
	if called.Load() != 1 || last.Load() != "b" {
		t.Fatalf("expected one callback for b, got %d (%v)", called.Load(), last.Load())
	}
}

func TestRollTimer_StopIdempotent(t *testing.T) {
	rt := newRollTimer(func(string) {})
	rt.Stop()
	rt.Start("a", time.Minute)
	rt.Stop()
	rt.Stop()
}
