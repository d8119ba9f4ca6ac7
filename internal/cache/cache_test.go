package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCache_ExpiresAfterTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("products", []int{1, 2})

	if v, ok := c.Get("products"); !ok || len(v.([]int)) != 2 {
		t.Fatalf("expected cached value, got %v %v", v, ok)
	}

	now = now.Add(time.Minute)

	if _, ok := c.Get("products"); ok {
		t.Fatalf("entry should expire at ttl")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry not evicted")
	}
}

func TestCache_DeleteAndDefaultTTL(t *testing.T) {
	c := New(0)
	if c.ttl != 5*time.Second {
		t.Fatalf("default ttl = %s", c.ttl)
	}

	c.Set("k", 1)
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatalf("deleted key still present")
	}
}

func TestCache_GetOrLoadCollapsesConcurrentMisses(t *testing.T) {
	c := New(time.Minute)

	var calls atomic.Int32
	release := make(chan struct{})

	load := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "catalog", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrLoad(context.Background(), "list:30", load)
			if err != nil || v != "catalog" {
				t.Errorf("GetOrLoad = %v, %v", v, err)
			}
		}()
	}

	// let the goroutines pile up on the in-flight load
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("load called %d times, want 1", got)
	}
	if v, ok := c.Get("list:30"); !ok || v != "catalog" {
		t.Fatalf("loaded value not cached: %v %v", v, ok)
	}
}

func TestCache_GetOrLoadDoesNotCacheErrors(t *testing.T) {
	c := New(time.Minute)

	if _, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) { return nil, errors.New("upstream down") }); err == nil {
		t.Fatalf("expected load error")
	}
	if c.Len() != 0 {
		t.Fatalf("failed loads must not be cached")
	}
}

func TestCache_GetOrLoadSurvivesFirstCallerLeaving(t *testing.T) {
	c := New(time.Minute)

	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) (any, error) {
		close(started)
		<-release
		// the first caller is gone by now; the shared load must not see that
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return "catalog", nil
	}

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrLoad(first, "list:30", load)
		firstErr <- err
	}()
	<-started

	second := make(chan any, 1)
	go func() {
		v, err := c.GetOrLoad(context.Background(), "list:30", load)
		if err != nil {
			t.Errorf("second caller: %v", err)
		}
		second <- v
	}()

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("first caller err = %v, want context.Canceled", err)
	}

	// give the second caller time to join the in-flight load
	time.Sleep(20 * time.Millisecond)
	close(release)

	if v := <-second; v != "catalog" {
		t.Fatalf("second caller got %v, want catalog", v)
	}
	if v, ok := c.Get("list:30"); !ok || v != "catalog" {
		t.Fatalf("shared load not cached: %v %v", v, ok)
	}
}
