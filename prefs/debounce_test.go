package prefs

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var fired int32
	var last int32

	for i := 1; i <= 5; i++ {
		i := i
		d.Schedule(func() {
			atomic.AddInt32(&fired, 1)
			atomic.StoreInt32(&last, int32(i))
		})
	}

	time.Sleep(200 * time.Millisecond)
	if n := atomic.LoadInt32(&fired); n != 1 {
		t.Errorf("writes fired = %d, want 1 for the whole burst", n)
	}
	if got := atomic.LoadInt32(&last); got != 5 {
		t.Errorf("surviving write = %d, want the last scheduled (5)", got)
	}
}

func TestDebouncer_Flush(t *testing.T) {
	d := NewDebouncer(time.Hour)
	var fired int32

	d.Schedule(func() { atomic.AddInt32(&fired, 1) })
	d.Flush()

	if n := atomic.LoadInt32(&fired); n != 1 {
		t.Fatalf("writes after Flush = %d, want 1", n)
	}

	// Flushing must also disarm the timer.
	d.Flush()
	time.Sleep(50 * time.Millisecond)
	if n := atomic.LoadInt32(&fired); n != 1 {
		t.Errorf("writes after second Flush = %d, want still 1", n)
	}
}

func TestDebouncer_FlushWithNothingPending(t *testing.T) {
	d := NewDebouncer(time.Hour)
	d.Flush() // must not panic or block
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var fired int32

	d.Schedule(func() { atomic.AddInt32(&fired, 1) })
	d.Stop()

	time.Sleep(150 * time.Millisecond)
	if n := atomic.LoadInt32(&fired); n != 0 {
		t.Errorf("writes after Stop = %d, want 0", n)
	}
}

func TestDebouncer_ImmediateCancelsPending(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var stale, fresh int32

	d.Schedule(func() { atomic.AddInt32(&stale, 1) })
	d.Immediate(func() { atomic.AddInt32(&fresh, 1) })

	if n := atomic.LoadInt32(&fresh); n != 1 {
		t.Fatalf("immediate write ran %d times, want 1 synchronously", n)
	}

	time.Sleep(150 * time.Millisecond)
	if n := atomic.LoadInt32(&stale); n != 0 {
		t.Errorf("stale write fired %d times after Immediate, want 0", n)
	}
}

func TestDebouncer_ReusableAfterFlush(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var fired int32

	d.Schedule(func() { atomic.AddInt32(&fired, 1) })
	d.Flush()
	d.Schedule(func() { atomic.AddInt32(&fired, 1) })

	time.Sleep(200 * time.Millisecond)
	if n := atomic.LoadInt32(&fired); n != 2 {
		t.Errorf("writes = %d, want 2 across flush and reschedule", n)
	}
}

func TestDebouncer_ZeroIntervalDefaults(t *testing.T) {
	d := NewDebouncer(0)
	if d.interval != time.Second {
		t.Errorf("interval = %v, want the 1s default", d.interval)
	}
}
