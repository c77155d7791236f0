package keylock

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	kl := New()
	ctx := context.Background()

	release, err := kl.Acquire(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	release()

	// Key must be reacquirable after release.
	release, err = kl.Acquire(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	release()
}

func TestContendedKeyTimesOut(t *testing.T) {
	kl := New()

	release, err := kl.Acquire(context.Background(), "hot")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := kl.Acquire(ctx, "hot"); err == nil {
		t.Fatal("expected acquisition of held key to fail on deadline")
	}
}

func TestIndependentKeysDoNotBlock(t *testing.T) {
	kl := New()

	release, err := kl.Acquire(context.Background(), "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	releaseB, err := kl.Acquire(ctx, "b")
	if err != nil {
		t.Fatalf("independent key blocked: %v", err)
	}
	releaseB()
}

func TestMutualExclusion(t *testing.T) {
	kl := New()
	var counter, max int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := kl.Acquire(context.Background(), "shared")
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			mu.Lock()
			counter++
			if counter > max {
				max = counter
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			counter--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if max != 1 {
		t.Errorf("expected at most one holder, observed %d", max)
	}
}

func TestEntryEviction(t *testing.T) {
	kl := New()

	release, err := kl.Acquire(context.Background(), "temp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	release()

	kl.mu.Lock()
	defer kl.mu.Unlock()
	if len(kl.locks) != 0 {
		t.Errorf("expected lock map to be empty after release, got %d entries", len(kl.locks))
	}
}
