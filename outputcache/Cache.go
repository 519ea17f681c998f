package outputcache

import (
	"container/list"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goma/gomacc/internal/base"
	"github.com/goma/gomacc/internal/fsutil"
)

var LogOutputCache = base.NewLogCategory("outputcache")

const legacyShardWidth = 2

// Bounds configures the cache's size limits; Evict* must each be
// less than or equal to their Max counterpart.
type Bounds struct {
	MaxBytes      int64
	EvictToBytes  int64
	MaxEntries    int64
	EvictToEntries int64
}

// Stats exports the counters spec.md calls out by name.
type Stats struct {
	LookupHit     int64
	LookupMiss    int64
	LookupFailure int64

	GCRuns      int64
	GCRemoved   int64
	GCFailed    int64
	GCMillis    int64
}

type indexEntry struct {
	key   string
	mtime time.Time
	size  int64
	elem  *list.Element
}

// Cache is the sharded, content-addressed store of cached compiler
// outputs. It must be constructed with NewCache, which starts the
// background loader and GC goroutines.
type Cache struct {
	root        string
	bounds      Bounds
	compression base.CompressionFormat

	mu       sync.RWMutex
	index    map[string]*indexEntry
	lru      *list.List // front = oldest, back = most recently touched
	totalBytes  int64
	entryCount int64

	readyMu sync.Mutex
	readyCond *sync.Cond
	ready   bool

	gcMu   sync.Mutex
	gcCond *sync.Cond
	gcPending bool
	quit      bool

	stats Stats
}

// NewCache creates the cache rooted at dir and starts its background
// loader and GC goroutine. The cache is usable immediately: SaveOutput
// and Lookup block internally until the loader finishes.
func NewCache(dir string, bounds Bounds) *Cache {
	return NewCacheWithCompression(dir, bounds, base.COMPRESSION_LZ4)
}

// NewCacheWithCompression is NewCache with an explicit on-disk codec;
// entries compress well (object files and diagnostics are both highly
// redundant) so the cache never stores raw bytes.
func NewCacheWithCompression(dir string, bounds Bounds, compression base.CompressionFormat) *Cache {
	bounds.EvictToBytes = base.ClampI64(bounds.EvictToBytes, 0, bounds.MaxBytes)
	bounds.EvictToEntries = base.ClampI64(bounds.EvictToEntries, 0, bounds.MaxEntries)

	c := &Cache{
		root:        dir,
		bounds:      bounds,
		compression: compression,
		index:       make(map[string]*indexEntry),
		lru:         list.New(),
	}
	c.readyCond = sync.NewCond(&c.readyMu)
	c.gcCond = sync.NewCond(&c.gcMu)

	go c.load()
	go c.gcLoop()

	return c
}

// load enumerates <root>/<kk>/ and rebuilds the in-memory index,
// oldest mtime first. Entries that can't be legitimately shard-keyed
// (malformed basename, legacy root-level files, directories standing
// in for entries) are removed outright.
func (c *Cache) load() {
	os.MkdirAll(c.root, 0700)

	shards, _ := os.ReadDir(c.root)
	type found = struct {
		key   string
		path  string
		mtime time.Time
		size  int64
	}
	var all []found

	for _, shard := range shards {
		if !shard.IsDir() || len(shard.Name()) != legacyShardWidth {
			if !shard.IsDir() {
				os.Remove(filepath.Join(c.root, shard.Name()))
			}
			continue
		}
		shardDir := filepath.Join(c.root, shard.Name())
		files, _ := os.ReadDir(shardDir)
		for _, f := range files {
			path := filepath.Join(shardDir, f.Name())
			if f.IsDir() {
				os.RemoveAll(path)
				continue
			}
			if !isValidKey(f.Name()) || f.Name()[:legacyShardWidth] != shard.Name() {
				os.Remove(path)
				continue
			}
			info, err := f.Info()
			if err != nil {
				os.Remove(path)
				continue
			}
			all = append(all, found{key: f.Name(), path: path, mtime: info.ModTime(), size: info.Size()})
		}
	}

	sortByMTime(all)

	c.mu.Lock()
	for _, f := range all {
		elem := c.lru.PushBack(f.key)
		c.index[f.key] = &indexEntry{key: f.key, mtime: f.mtime, size: f.size, elem: elem}
		c.totalBytes += f.size
		c.entryCount++
	}
	c.mu.Unlock()

	c.readyMu.Lock()
	c.ready = true
	c.readyCond.Broadcast()
	c.readyMu.Unlock()
}

func isValidKey(name string) bool {
	if len(name) != 64 {
		return false
	}
	for _, r := range name {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			return false
		}
	}
	return true
}

func sortByMTime(all []struct {
	key   string
	path  string
	mtime time.Time
	size  int64
}) {
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].mtime.Before(all[j-1].mtime); j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
}

func (c *Cache) waitReady() {
	c.readyMu.Lock()
	for !c.ready {
		c.readyCond.Wait()
	}
	c.readyMu.Unlock()
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.root, key[:legacyShardWidth], key)
}

// SaveOutput persists files under key, replacing any prior entry.
// It returns false (and leaves the cache state unchanged) on any I/O
// error.
func (c *Cache) SaveOutput(key string, files []File) bool {
	c.waitReady()

	entry := newEntry(files)
	path := c.entryPath(key)

	err := fsutil.AtomicWriteFile(path, 0644, func(f *os.File) error {
		cw := base.NewCompressedWriter(f, c.compression)
		ar := base.NewArchiveWriter(cw)
		ar.Serializable(entry)
		if err := ar.Error(); err != nil {
			cw.Close()
			return err
		}
		return cw.Close()
	})
	if err != nil {
		base.LogWarning(LogOutputCache, "SaveOutput(%s): %v", key, err)
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		base.LogWarning(LogOutputCache, "SaveOutput(%s): stat after write: %v", key, err)
		return false
	}

	c.mu.Lock()
	if old, ok := c.index[key]; ok {
		c.lru.Remove(old.elem)
		c.totalBytes -= old.size
		c.entryCount--
	}
	elem := c.lru.PushBack(key)
	c.index[key] = &indexEntry{key: key, mtime: info.ModTime(), size: info.Size(), elem: elem}
	c.totalBytes += info.Size()
	c.entryCount++
	needsGC := c.shouldInvokeGC()
	c.mu.Unlock()

	if needsGC {
		c.signalGC()
	}
	return true
}

// Lookup reads the entry for key, moving it to the LRU tail on a hit.
// It returns false on a miss (absent or raced-away-by-GC) or a
// corrupt on-disk record, without evicting the entry on a parse
// failure.
func (c *Cache) Lookup(key string) (*Entry, bool) {
	c.waitReady()

	c.mu.RLock()
	_, present := c.index[key]
	c.mu.RUnlock()
	if !present {
		atomic.AddInt64(&c.stats.LookupMiss, 1)
		return nil, false
	}

	f, err := os.Open(c.entryPath(key))
	if err != nil {
		atomic.AddInt64(&c.stats.LookupMiss, 1)
		return nil, false
	}
	defer f.Close()

	var entry Entry
	cr := base.NewCompressedReader(f, c.compression)
	defer cr.Close()
	ar := base.NewArchiveReader(cr)
	ar.Serializable(&entry)
	if err := ar.Error(); err != nil {
		base.LogError(LogOutputCache, "Lookup(%s): corrupt entry: %v", key, err)
		atomic.AddInt64(&c.stats.LookupFailure, 1)
		return nil, false
	}

	c.mu.Lock()
	if ent, ok := c.index[key]; ok {
		c.lru.MoveToBack(ent.elem)
	}
	c.mu.Unlock()

	atomic.AddInt64(&c.stats.LookupHit, 1)
	return &entry, true
}

func (c *Cache) Stats() Stats {
	return Stats{
		LookupHit:     atomic.LoadInt64(&c.stats.LookupHit),
		LookupMiss:    atomic.LoadInt64(&c.stats.LookupMiss),
		LookupFailure: atomic.LoadInt64(&c.stats.LookupFailure),
		GCRuns:        atomic.LoadInt64(&c.stats.GCRuns),
		GCRemoved:     atomic.LoadInt64(&c.stats.GCRemoved),
		GCFailed:      atomic.LoadInt64(&c.stats.GCFailed),
		GCMillis:      atomic.LoadInt64(&c.stats.GCMillis),
	}
}

// ShouldInvokeGarbageCollection reports, under the caller's existing
// read of the cache's accounting, whether GC should run. Exported for
// tests mirroring the literal bounded-count GC scenario.
func (c *Cache) ShouldInvokeGarbageCollection() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shouldInvokeGC()
}

// shouldInvokeGC must be called with c.mu held (any mode).
func (c *Cache) shouldInvokeGC() bool {
	return (c.bounds.MaxBytes > 0 && c.totalBytes > c.bounds.MaxBytes) ||
		(c.bounds.MaxEntries > 0 && c.entryCount > c.bounds.MaxEntries)
}

func (c *Cache) signalGC() {
	c.gcMu.Lock()
	c.gcPending = true
	c.gcCond.Signal()
	c.gcMu.Unlock()
}

func (c *Cache) gcLoop() {
	for {
		c.gcMu.Lock()
		for !c.gcPending && !c.quit {
			c.gcCond.Wait()
		}
		if c.quit {
			c.gcMu.Unlock()
			return
		}
		c.gcPending = false
		c.gcMu.Unlock()

		c.runGC()
	}
}

// runGC pops from the LRU front, unlinking each on-disk file, until
// both evict-to bounds are satisfied or an unlink fails (the failed
// entry keeps its accounting and GC aborts the round).
func (c *Cache) runGC() {
	start := time.Now()
	var removed, failed int64

	for {
		c.mu.Lock()
		if !((c.bounds.MaxBytes > 0 && c.totalBytes > c.bounds.EvictToBytes) ||
			(c.bounds.MaxEntries > 0 && c.entryCount > c.bounds.EvictToEntries)) {
			c.mu.Unlock()
			break
		}
		front := c.lru.Front()
		if front == nil {
			c.mu.Unlock()
			break
		}
		key := front.Value.(string)
		ent := c.index[key]
		c.mu.Unlock()

		if err := os.Remove(c.entryPath(key)); err != nil {
			failed++
			atomic.AddInt64(&c.stats.GCFailed, 1)
			base.LogWarning(LogOutputCache, "GC: unlink %s: %v", key, err)
			break
		}

		c.mu.Lock()
		c.lru.Remove(ent.elem)
		delete(c.index, key)
		c.totalBytes -= ent.size
		c.entryCount--
		c.mu.Unlock()
		removed++
	}

	atomic.AddInt64(&c.stats.GCRuns, 1)
	atomic.AddInt64(&c.stats.GCRemoved, removed)
	atomic.AddInt64(&c.stats.GCMillis, time.Since(start).Milliseconds())
	_ = failed
}

// Quit waits for the loader to finish (so shutdown never races with a
// half-built index) then tells the GC goroutine to stop. It returns
// without waiting for that goroutine to exit: a round already running
// finishes on its own, and a signalled round that has not started yet
// is skipped.
func (c *Cache) Quit() {
	c.waitReady()

	c.gcMu.Lock()
	c.quit = true
	c.gcCond.Broadcast()
	c.gcMu.Unlock()
}
