package flow

import (
	"testing"
	"time"

	"github.com/advocata/intakepipe/internal/store"
)

func TestFlowCacheCreatesDefault(t *testing.T) {
	st := store.NewInMemoryStore()
	cache := NewFlowCache(st, 0)

	def, err := cache.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(def.Steps) != 4 {
		t.Errorf("expected 4 default steps, got %d", len(def.Steps))
	}

	// The default must have been persisted, not just served from memory.
	stored, err := st.GetFlow()
	if err != nil {
		t.Fatalf("get flow from store: %v", err)
	}
	if stored == nil {
		t.Fatal("expected default flow persisted")
	}
}

func TestFlowCacheServesFromMemoryWithinTTL(t *testing.T) {
	inner := store.NewInMemoryStore()
	st := &failingStore{Store: inner}
	cache := NewFlowCache(st, time.Hour)

	if _, err := cache.Get(); err != nil {
		t.Fatalf("first get: %v", err)
	}

	// A fresh cache entry must not hit the store again.
	st.failGetFlow = true
	if _, err := cache.Get(); err != nil {
		t.Errorf("expected cached definition, got %v", err)
	}
}

func TestFlowCacheServesStaleOnRefreshFailure(t *testing.T) {
	inner := store.NewInMemoryStore()
	st := &failingStore{Store: inner}
	cache := NewFlowCache(st, time.Millisecond)

	if _, err := cache.Get(); err != nil {
		t.Fatalf("first get: %v", err)
	}

	st.failGetFlow = true
	time.Sleep(5 * time.Millisecond)
	def, err := cache.Get()
	if err != nil {
		t.Fatalf("expected stale definition on refresh failure, got %v", err)
	}
	if def == nil || len(def.Steps) == 0 {
		t.Error("expected usable stale definition")
	}
}
