package outputcache

import (
	"strings"

	"github.com/goma/gomacc/internal/base"
	"github.com/goma/gomacc/parser"
)

// suppressedFlags lists compiler-info flags that must not perturb the
// cache key: they select a toolchain location (shipped identically on
// every machine that can produce a hit) rather than compiler
// behavior.
var suppressedFlags = map[string]bool{
	"-Xclang":        true,
	"-B":             true,
	"-gcc-toolchain": true,
	"-sysroot":       true,
	"-resource-dir":  true,
}

func isSuppressedFlag(tok string) bool {
	for prefix := range suppressedFlags {
		if tok == prefix || strings.HasPrefix(tok, prefix+"=") {
			return true
		}
	}
	return false
}

// MakeCacheKey normalizes inv (dropping cache-irrelevant flags and the
// debug-prefix map, which never affects output bytes) and returns the
// 64-hex SHA-256 digest of the normalized arguments. The caller folds
// the compiler's hashes into it to form the on-disk key.
func MakeCacheKey(inv *parser.Invocation) string {
	var normalized []string
	for i := 0; i < len(inv.ExpandedArgs); i++ {
		tok := inv.ExpandedArgs[i]
		if isSuppressedFlag(tok) {
			if !strings.Contains(tok, "=") && i+1 < len(inv.ExpandedArgs) {
				i++ // skip the separate-argument form's value too
			}
			continue
		}
		if strings.HasPrefix(tok, "-fdebug-prefix-map=") {
			continue
		}
		normalized = append(normalized, tok)
	}
	fp := base.StringFingerprint(strings.Join(normalized, "\x1f"))
	return fp.String()
}
