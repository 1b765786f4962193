package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCache_FreshValueReturnedWithoutLoad(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := New(15*time.Minute, WithClock[int](func() time.Time { return now }))

	loads := 0
	loader := func(context.Context) (int, error) {
		loads++
		return 42, nil
	}

	ctx := context.Background()
	v, err := c.GetOrLoad(ctx, "k", loader)
	if err != nil {
		t.Fatalf("GetOrLoad: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
	if loads != 1 {
		t.Errorf("expected 1 load, got %d", loads)
	}

	// Just inside the TTL: served from cache, no second load.
	now = now.Add(15*time.Minute - time.Second)
	v, err = c.GetOrLoad(ctx, "k", loader)
	if err != nil {
		t.Fatalf("GetOrLoad: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
	if loads != 1 {
		t.Errorf("expected cached value, got %d loads", loads)
	}
}

func TestCache_ExpiredValueTriggersExactlyOneRefetch(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := New(10*time.Minute, WithClock[string](func() time.Time { return now }))

	loads := 0
	loader := func(context.Context) (string, error) {
		loads++
		return "fresh", nil
	}

	ctx := context.Background()
	if _, err := c.GetOrLoad(ctx, "k", loader); err != nil {
		t.Fatalf("GetOrLoad: %v", err)
	}

	now = now.Add(10*time.Minute + time.Second)
	if _, err := c.GetOrLoad(ctx, "k", loader); err != nil {
		t.Fatalf("GetOrLoad: %v", err)
	}
	if loads != 2 {
		t.Errorf("expected exactly one refetch after expiry, got %d loads", loads)
	}

	// Refetched value is fresh again.
	if _, err := c.GetOrLoad(ctx, "k", loader); err != nil {
		t.Fatalf("GetOrLoad: %v", err)
	}
	if loads != 2 {
		t.Errorf("expected no further loads, got %d", loads)
	}
}

func TestCache_LoaderErrorNotCached(t *testing.T) {
	c := New[int](time.Minute)

	loads := 0
	failing := func(context.Context) (int, error) {
		loads++
		return 0, errors.New("upstream down")
	}

	ctx := context.Background()
	if _, err := c.GetOrLoad(ctx, "k", failing); err == nil {
		t.Fatal("expected error")
	}
	if _, err := c.GetOrLoad(ctx, "k", failing); err == nil {
		t.Fatal("expected error")
	}
	if loads != 2 {
		t.Errorf("expected failed loads to be retried, got %d loads", loads)
	}
}

func TestCache_Stats(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := New(time.Minute, WithClock[int](func() time.Time { return now }))

	c.Set("a", 1)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected miss")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
