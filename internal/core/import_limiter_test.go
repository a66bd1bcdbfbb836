package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestImportLimiter_AcquireRelease(t *testing.T) {
	l := NewImportLimiter(2, time.Second)
	ctx := context.Background()

	if got := l.Available(); got != 2 {
		t.Fatalf("Available = %d, want 2", got)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if got := l.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, want 2", got)
	}
	if got := l.Available(); got != 0 {
		t.Errorf("Available = %d, want 0", got)
	}

	l.Release()
	l.Release()

	st := l.Status()
	if st.Active != 0 || st.Available != 2 || st.MaxConcurrent != 2 {
		t.Errorf("Status = %+v", st)
	}
}

func TestImportLimiter_TimesOutWhenFull(t *testing.T) {
	l := NewImportLimiter(1, 50*time.Millisecond)
	if !l.TryAcquire() {
		t.Fatal("TryAcquire on empty limiter failed")
	}
	defer l.Release()

	if l.TryAcquire() {
		t.Fatal("TryAcquire on full limiter succeeded")
	}
	if err := l.Acquire(context.Background()); !errors.Is(err, ErrTooManyImports) {
		t.Errorf("Acquire err = %v, want ErrTooManyImports", err)
	}
}

func TestImportLimiter_ContextCancelled(t *testing.T) {
	l := NewImportLimiter(1, time.Minute)
	l.TryAcquire()
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire err = %v, want context.Canceled", err)
	}
}

func TestImportLimiter_NeverExceedsMax(t *testing.T) {
	const maxConcurrent = 3
	l := NewImportLimiter(maxConcurrent, time.Second)

	var wg sync.WaitGroup
	var peak atomic.Int64
	for range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer l.Release()
			n := int64(l.ActiveCount())
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
		}()
	}
	wg.Wait()

	if peak.Load() > maxConcurrent {
		t.Errorf("peak active = %d, max %d", peak.Load(), maxConcurrent)
	}
	if l.ActiveCount() != 0 {
		t.Errorf("ActiveCount = %d after all released", l.ActiveCount())
	}
}

func TestImportLimiter_WaitForDrain(t *testing.T) {
	l := NewImportLimiter(2, time.Second)
	l.TryAcquire()

	go func() {
		time.Sleep(20 * time.Millisecond)
		l.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.WaitForDrain(ctx); err != nil {
		t.Fatalf("WaitForDrain: %v", err)
	}

	l.TryAcquire()
	defer l.Release()
	short, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	if err := l.WaitForDrain(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain err = %v, want deadline exceeded", err)
	}
}

func TestNewImportLimiter_Defaults(t *testing.T) {
	l := NewImportLimiter(0, 0)
	if got := l.Status().MaxConcurrent; got != DefaultMaxConcurrentImports {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentImports)
	}
}
