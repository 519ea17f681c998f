package outputcache

import (
	"fmt"
	"testing"
	"time"
)

func newTestCache(t *testing.T, bounds Bounds) *Cache {
	t.Helper()
	c := NewCache(t.TempDir(), bounds)
	c.waitReady()
	return c
}

func TestSaveOutput_ThenLookup_RoundTrips(t *testing.T) {
	c := newTestCache(t, Bounds{MaxBytes: 1 << 30, EvictToBytes: 1 << 29, MaxEntries: 1000, EvictToEntries: 900})

	key := fmt.Sprintf("%064x", 0xaa11bb22)
	files := []File{{Filename: "output.o", Content: []byte("(output)"), IsExecutable: false}}

	if ok := c.SaveOutput(key, files); !ok {
		t.Fatalf("SaveOutput returned false")
	}

	entry, ok := c.Lookup(key)
	if !ok {
		t.Fatalf("Lookup returned a miss after SaveOutput")
	}
	if len(entry.Files) != 1 {
		t.Fatalf("entry.Files length = %d, want 1", len(entry.Files))
	}
	if entry.Files[0].Filename != "output.o" {
		t.Errorf("filename = %q, want output.o", entry.Files[0].Filename)
	}
	if string(entry.Files[0].Content) != "(output)" {
		t.Errorf("content = %q, want (output)", entry.Files[0].Content)
	}
}

func TestLookup_AbsentKey_IsMissWithoutError(t *testing.T) {
	c := newTestCache(t, Bounds{MaxBytes: 1 << 30, EvictToBytes: 1 << 29, MaxEntries: 1000, EvictToEntries: 900})

	before := c.Stats().LookupMiss
	if _, ok := c.Lookup(fmt.Sprintf("%064x", 0)); ok {
		t.Errorf("expected miss for absent key")
	}
	if after := c.Stats().LookupMiss; after != before+1 {
		t.Errorf("lookup_miss = %d, want %d", after, before+1)
	}
}

func TestGC_BoundedCountEviction(t *testing.T) {
	c := newTestCache(t, Bounds{MaxBytes: 0, EvictToBytes: 0, MaxEntries: 99, EvictToEntries: 60})

	for i := 0; i < 99; i++ {
		key := fmt.Sprintf("%064x", i)
		c.SaveOutput(key, []File{{Filename: "FOO", Content: []byte(fmt.Sprintf("%d", i))}})
	}
	if c.ShouldInvokeGarbageCollection() {
		t.Fatalf("GC should not be required after exactly max_entries insertions")
	}

	key100 := fmt.Sprintf("%064x", 99)
	c.SaveOutput(key100, []File{{Filename: "FOO", Content: []byte("99")}})

	if !c.ShouldInvokeGarbageCollection() {
		t.Fatalf("expected ShouldInvokeGarbageCollection() true after the 100th insert")
	}

	// SaveOutput already signalled the cache's own GC goroutine; wait
	// for it to finish its round instead of invoking runGC directly,
	// since only one GC goroutine should ever touch a given cache.
	deadline := time.Now().Add(2 * time.Second)
	for c.Stats().GCRemoved == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	stats := c.Stats()
	if stats.GCRemoved != 40 {
		t.Errorf("num_removed = %d, want 40", stats.GCRemoved)
	}
	if stats.GCFailed != 0 {
		t.Errorf("num_failed = %d, want 0", stats.GCFailed)
	}
}

func TestIsSuppressedFlag_ToolchainLocationFlags(t *testing.T) {
	// MakeCacheKey is exercised indirectly via parser.Invocation in the
	// cmd/gomacc integration path; here we only check the suppression
	// list filters out toolchain-location flags, not behavior ones.
	if !isSuppressedFlag("-sysroot") {
		t.Errorf("-sysroot should be suppressed")
	}
	if !isSuppressedFlag("-resource-dir=/x") {
		t.Errorf("-resource-dir=... should be suppressed")
	}
	if isSuppressedFlag("-O2") {
		t.Errorf("-O2 must not be suppressed")
	}
}
