// Package compilerinfo memoizes probe.CompilerInfo per compiler
// binary, keyed by the tuple (local_path, compiler_info_flags,
// relevant_env_subset). It verifies freshness via file identity
// before returning a cached entry, refreshing identities in place
// when only mtimes changed, and suppresses concurrent duplicate
// probes of the same key with a fill lock.
package compilerinfo

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/goma/gomacc/internal/base"
	"github.com/goma/gomacc/internal/fsutil"
	"github.com/goma/gomacc/parser"
	"github.com/goma/gomacc/probe"
)

var LogCompilerInfo = base.NewLogCategory("compilerinfo")

// Key identifies one cache entry. InfoFlags and EnvSubset are
// pre-joined into stable strings so Key remains comparable.
type Key struct {
	LocalPath string
	InfoFlags string
	EnvSubset string
}

// MakeKey builds a Key from an Invocation's identity-affecting flags
// and the relevant environment subset, following spec §6's
// per-compiler-family environment lists.
func MakeKey(localPath string, infoFlags []string, env map[string]string, kind parser.CompilerKind) Key {
	return Key{
		LocalPath: localPath,
		InfoFlags: strings.Join(infoFlags, "\x1f"),
		EnvSubset: joinEnvSubset(env, relevantEnvNames(kind)),
	}
}

func relevantEnvNames(kind parser.CompilerKind) []string {
	switch kind {
	case parser.CompilerMsvcLike, parser.CompilerClangCl:
		return []string{"INCLUDE", "LIB", "MSC_CMD_FLAGS", "VCINSTALLDIR", "VSINSTALLDIR", "WindowsSdkDir"}
	default:
		return []string{"LIBRARY_PATH", "CPATH", "C_INCLUDE_PATH", "CPLUS_INCLUDE_PATH",
			"OBJC_INCLUDE_PATH", "DEPENDENCIES_OUTPUT", "SUNPRO_DEPENDENCIES",
			"MACOSX_DEPLOYMENT_TARGET", "SDKROOT", "PWD", "DEVELOPER_DIR"}
	}
}

func joinEnvSubset(env map[string]string, names []string) string {
	var b strings.Builder
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte('=')
		b.WriteString(env[n])
		b.WriteByte('\x1f')
	}
	return b.String()
}

// entry wraps a probe.CompilerInfo with its own fields' lock and a
// refcount, per spec §9's two-level locking discipline: the cache's
// map-wide RWMutex guards visibility, this mutex guards the mutable
// fields of one entry. refcount tracks in-flight Handles so a stale
// entry found by tryAcquireFresh is unlinked from the map immediately
// but its CompilerInfo stays valid for any Handle still holding it;
// Go's GC reclaims the entry once the last Handle drops it, so
// refcount reaching zero never needs to trigger a delete itself.
type entry struct {
	mu         sync.Mutex
	info       *probe.CompilerInfo
	refcount   int32
	lastUsedMu sync.Mutex
}

// fillSlot suppresses concurrent duplicate probes of the same key:
// the first caller to reach a key installs a fillSlot and probes;
// later callers block on its done channel instead of re-probing.
type fillSlot struct {
	done  chan struct{}
	entry *entry
}

// Cache is the process-wide compiler-info cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]*entry

	fillMu sync.Mutex
	fills  map[Key]*fillSlot
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[Key]*entry),
		fills:   make(map[Key]*fillSlot),
	}
}

// Handle is a scope-bound reference obtained from Get; callers must
// call Release when done.
type Handle struct {
	cache *Cache
	key   Key
	ent   *entry
}

// Info returns the underlying CompilerInfo. Treat it as read-only;
// the cache owns mutation.
func (h *Handle) Info() *probe.CompilerInfo {
	return h.ent.info
}

// Release decrements the handle's refcount. A live entry stays in the
// cache regardless of refcount so later, non-overlapping Get calls
// still hit it; only tryAcquireFresh's staleness check unlinks an
// entry from the map, independent of how many Handles are out on it.
func (h *Handle) Release() {
	h.ent.mu.Lock()
	h.ent.refcount--
	h.ent.mu.Unlock()
}

// Get looks up key, verifying freshness, and probes on a miss or
// staleness. It never returns an error: a probe failure is cached
// state (Info().Found == false), consistent with spec §7.
func (c *Cache) Get(ctx context.Context, key Key, kind parser.CompilerKind, infoFlags []string, env []string, cwd string, isCplusplus, hasNoIntegratedAs bool) *Handle {
	if h := c.tryAcquireFresh(key); h != nil {
		return h
	}
	return c.fillAndAcquire(ctx, key, kind, infoFlags, env, cwd, isCplusplus, hasNoIntegratedAs)
}

func (c *Cache) tryAcquireFresh(key Key) *Handle {
	c.mu.RLock()
	ent, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil
	}

	ent.mu.Lock()
	fresh := isFresh(ent.info)
	if fresh {
		ent.refcount++
	}
	ent.mu.Unlock()

	if !fresh {
		c.mu.Lock()
		if cur, stillThere := c.entries[key]; stillThere && cur == ent {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil
	}

	touchLastUsed(ent)

	return &Handle{cache: c, key: key, ent: ent}
}

func (c *Cache) fillAndAcquire(ctx context.Context, key Key, kind parser.CompilerKind, infoFlags []string, env []string, cwd string, isCplusplus, hasNoIntegratedAs bool) *Handle {
	c.fillMu.Lock()
	if slot, inFlight := c.fills[key]; inFlight {
		c.fillMu.Unlock()
		<-slot.done
		slot.entry.mu.Lock()
		slot.entry.refcount++
		slot.entry.mu.Unlock()
		return &Handle{cache: c, key: key, ent: slot.entry}
	}

	slot := &fillSlot{done: make(chan struct{})}
	c.fills[key] = slot
	c.fillMu.Unlock()

	info := probe.Probe(ctx, kind, key.LocalPath, infoFlags, env, cwd, isCplusplus, hasNoIntegratedAs)
	ent := &entry{info: info, refcount: 1}
	slot.entry = ent

	c.mu.Lock()
	c.entries[key] = ent
	c.mu.Unlock()

	c.fillMu.Lock()
	delete(c.fills, key)
	c.fillMu.Unlock()
	close(slot.done)

	return &Handle{cache: c, key: key, ent: ent}
}

func touchLastUsed(ent *entry) {
	ent.lastUsedMu.Lock()
	ent.info.LastUsedAt = time.Now()
	ent.lastUsedMu.Unlock()
}

// isFresh checks file-id equality for the local/real paths and every
// subprogram, silently refreshing file-ids in place when hashes still
// match but identities drifted (same bytes, new mtime/inode).
func isFresh(info *probe.CompilerInfo) bool {
	localID, errL := fsutil.StatIdentity(info.LocalPath)
	realID, errR := fsutil.StatIdentity(info.RealPath)
	if errL != nil || errR != nil {
		return false
	}

	if localID.Equals(info.LocalFileID) && realID.Equals(info.RealFileID) && subprogramsFresh(info) {
		return true
	}

	localHash, errL := hashIfExists(info.LocalPath)
	realHash, errR := hashIfExists(info.RealPath)
	if errL != nil || errR != nil || localHash != info.LocalHash || realHash != info.RealHash {
		return false
	}
	for _, s := range info.Subprograms {
		h, err := hashIfExists(s.Path)
		if err != nil || h != s.Hash {
			return false
		}
	}

	// hashes all still match: refresh identities in place.
	info.LocalFileID = localID
	info.RealFileID = realID
	for i := range info.Subprograms {
		if id, err := fsutil.StatIdentity(info.Subprograms[i].Path); err == nil {
			info.Subprograms[i].FileID = id
		}
	}
	return true
}

// hashIfExists re-fingerprints path, used to distinguish "content
// unchanged, only metadata drifted" from a genuine recompile.
func hashIfExists(path string) (base.Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return base.Fingerprint{}, err
	}
	defer f.Close()
	return base.ReaderFingerprint(f)
}

func subprogramsFresh(info *probe.CompilerInfo) bool {
	for _, s := range info.Subprograms {
		id, err := fsutil.StatIdentity(s.Path)
		if err != nil || !id.Equals(s.FileID) {
			return false
		}
	}
	return true
}
