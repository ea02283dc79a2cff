package cache

import (
	"testing"
	"time"

	"github.com/privymarket/settlement/pkg/types"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T, ttl time.Duration) *MarketCache {
	t.Helper()

	c, err := New(&Config{MaxMarkets: 100, TTL: ttl, Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestSetGetInvalidate(t *testing.T) {
	c := newTestCache(t, time.Minute)

	if _, ok := c.Get(1); ok {
		t.Fatal("empty cache should miss")
	}

	c.Set(&types.Market{ID: 1, Question: "Will it rain tomorrow?", TotalPool: 300})
	c.Wait()

	m, ok := c.Get(1)
	if !ok {
		t.Fatal("want hit after Set")
	}
	if m.ID != 1 || m.TotalPool != 300 {
		t.Fatalf("cached market mismatch: %+v", m)
	}

	c.Invalidate(1)
	c.Wait()

	if _, ok := c.Get(1); ok {
		t.Fatal("want miss after Invalidate")
	}
}

func TestEntriesExpire(t *testing.T) {
	c := newTestCache(t, 50*time.Millisecond)

	c.Set(&types.Market{ID: 2})
	c.Wait()

	if _, ok := c.Get(2); !ok {
		t.Fatal("want hit before TTL")
	}

	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get(2); ok {
		t.Fatal("want miss after TTL")
	}
}

func TestDistinctKeys(t *testing.T) {
	c := newTestCache(t, time.Minute)

	c.Set(&types.Market{ID: 1, Question: "first"})
	c.Set(&types.Market{ID: 11, Question: "second"})
	c.Wait()

	m, ok := c.Get(1)
	if !ok || m.Question != "first" {
		t.Fatalf("id 1: got %+v ok=%v", m, ok)
	}
	m, ok = c.Get(11)
	if !ok || m.Question != "second" {
		t.Fatalf("id 11: got %+v ok=%v", m, ok)
	}
}
