package parallel

import (
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool_Create(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{"explicit", 4, 4},
		{"zero", 0, runtime.GOMAXPROCS(0)},
		{"negative", -5, runtime.GOMAXPROCS(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(tt.workers)
			defer pool.Close()
			if pool.Workers() != tt.want {
				t.Errorf("Workers() = %d, want %d", pool.Workers(), tt.want)
			}
			if !pool.IsRunning() {
				t.Error("pool should be running after creation")
			}
		})
	}
}

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}
	pool.ExecuteAll(work)
	if counter.Load() != 100 {
		t.Errorf("counter = %d, want 100", counter.Load())
	}

	// Should not block.
	pool.ExecuteAll(nil)
}

func TestWorkerPool_WorkStealing(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var slow, fast atomic.Int64
	work := make([]func(), 40)
	for i := range work {
		if i%4 == 0 {
			work[i] = func() {
				time.Sleep(5 * time.Millisecond)
				slow.Add(1)
			}
		} else {
			work[i] = func() { fast.Add(1) }
		}
	}
	pool.ExecuteAll(work)
	if slow.Load() != 10 || fast.Load() != 30 {
		t.Errorf("slow = %d, fast = %d, want 10 and 30", slow.Load(), fast.Load())
	}
}

func TestWorkerPool_Run(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	errOdd := errors.New("odd")
	out := make([]int, 8)
	work := make([]func() error, len(out))
	for i := range work {
		work[i] = func() error {
			out[i] = i * i
			if i%2 == 1 {
				return errOdd
			}
			return nil
		}
	}
	err := pool.Run(work)
	if !errors.Is(err, errOdd) {
		t.Errorf("err = %v, want %v", err, errOdd)
	}
	for i, v := range out {
		if v != i*i {
			t.Errorf("out[%d] = %d, want %d", i, v, i*i)
		}
	}

	if err := pool.Run([]func() error{func() error { return nil }}); err != nil {
		t.Errorf("Run = %v, want nil", err)
	}
}

func TestWorkerPool_Close(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Close()
	pool.Close()
	if pool.IsRunning() {
		t.Error("pool should not be running after close")
	}

	var executed atomic.Bool
	pool.ExecuteAll([]func(){func() { executed.Store(true) }})
	if err := pool.Run([]func() error{func() error { executed.Store(true); return nil }}); !errors.Is(err, ErrClosed) {
		t.Errorf("Run after Close = %v, want ErrClosed", err)
	}
	if executed.Load() {
		t.Error("work was executed on a closed pool")
	}
}

func TestWorkerPool_NoGoroutineLeak(t *testing.T) {
	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	baseline := runtime.NumGoroutine()

	for range 5 {
		pool := NewWorkerPool(4)
		work := make([]func(), 100)
		for j := range work {
			work[j] = func() {}
		}
		pool.ExecuteAll(work)
		pool.Close()
	}

	runtime.GC()
	time.Sleep(100 * time.Millisecond)
	if final := runtime.NumGoroutine(); final > baseline+2 {
		t.Errorf("goroutine count: baseline=%d, final=%d (leak detected)", baseline, final)
	}
}
