package probe

import (
	"sync"

	"github.com/goma/gomacc/internal/base"
)

// hashRewriteTable maps a subprogram hash to a canonical replacement,
// used to fold locally-rebuilt binutils hashes onto the hash the
// remote backend already provisions. Writers are expected to be
// extremely rare (a config reload), matching spec §5's locking note.
type hashRewriteTable struct {
	mu    sync.RWMutex
	rules map[base.Fingerprint]base.Fingerprint
}

var globalHashRewrites = &hashRewriteTable{rules: make(map[base.Fingerprint]base.Fingerprint)}

// SetHashRewrite installs a from->to rewrite rule, replacing any
// existing rule for from.
func SetHashRewrite(from, to base.Fingerprint) {
	globalHashRewrites.mu.Lock()
	defer globalHashRewrites.mu.Unlock()
	globalHashRewrites.rules[from] = to
}

func lookupHashRewrite(h base.Fingerprint) (base.Fingerprint, bool) {
	globalHashRewrites.mu.RLock()
	defer globalHashRewrites.mu.RUnlock()
	to, ok := globalHashRewrites.rules[h]
	return to, ok
}

// applyHashRewriteTable rewrites every subprogram hash on ci that has
// a configured replacement.
func applyHashRewriteTable(ci *CompilerInfo) {
	for i := range ci.Subprograms {
		if to, ok := lookupHashRewrite(ci.Subprograms[i].Hash); ok {
			ci.Subprograms[i].Hash = to
		}
	}
}
