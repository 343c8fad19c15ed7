package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreMappingFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryStoreMappingCache(time.Hour)

	if _, ok, err := c.Get(ctx); err != nil || ok {
		t.Fatalf("Get on empty cache = (ok=%v, err=%v), want miss", ok, err)
	}

	won, err := c.PutIfAbsent(ctx, map[string]string{"01": "Gran Vía"})
	if err != nil || !won {
		t.Fatalf("first PutIfAbsent = (won=%v, err=%v), want winner", won, err)
	}

	won, err = c.PutIfAbsent(ctx, map[string]string{"01": "Otra Tienda"})
	if err != nil || won {
		t.Fatalf("second PutIfAbsent = (won=%v, err=%v), want loser", won, err)
	}

	mapping, ok, err := c.Get(ctx)
	if err != nil || !ok {
		t.Fatalf("Get after put = (ok=%v, err=%v), want hit", ok, err)
	}
	if mapping["01"] != "Gran Vía" {
		t.Errorf("mapping[01] = %q, the losing write must not be visible", mapping["01"])
	}
}

func TestMemoryStoreMappingTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryStoreMappingCache(time.Hour)

	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	if won, _ := c.PutIfAbsent(ctx, map[string]string{"01": "Gran Vía"}); !won {
		t.Fatal("expected first write to win")
	}

	clock = clock.Add(59 * time.Minute)
	if _, ok, _ := c.Get(ctx); !ok {
		t.Fatal("entry expired before its TTL")
	}

	clock = clock.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx); ok {
		t.Fatal("entry still visible after TTL")
	}

	// After expiry a new writer wins again.
	if won, _ := c.PutIfAbsent(ctx, map[string]string{"01": "Nueva"}); !won {
		t.Fatal("expected write after expiry to win")
	}
}

func TestMemoryStoreMappingInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryStoreMappingCache(time.Hour)

	if won, _ := c.PutIfAbsent(ctx, map[string]string{"01": "Gran Vía"}); !won {
		t.Fatal("expected first write to win")
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := c.Get(ctx); ok {
		t.Fatal("entry still visible after invalidation")
	}
	if won, _ := c.PutIfAbsent(ctx, map[string]string{"01": "Nueva"}); !won {
		t.Fatal("expected write after invalidation to win")
	}
}

func TestMemoryStoreMappingCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryStoreMappingCache(time.Hour)

	src := map[string]string{"01": "Gran Vía"}
	if won, _ := c.PutIfAbsent(ctx, src); !won {
		t.Fatal("expected write to win")
	}
	src["01"] = "mutated"

	got, ok, _ := c.Get(ctx)
	if !ok || got["01"] != "Gran Vía" {
		t.Errorf("cached mapping shares memory with the caller: %v", got)
	}

	got["01"] = "mutated again"
	again, _, _ := c.Get(ctx)
	if again["01"] != "Gran Vía" {
		t.Errorf("reader mutation leaked into the cache: %v", again)
	}
}
