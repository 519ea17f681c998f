package base

import (
	"encoding/hex"
	"hash"
	"io"
	"sync"

	"github.com/minio/sha256-simd"
)

// Fingerprint is a content hash used both as a cache key and as the
// identity of a compiler binary or a response-file expansion.
type Fingerprint [sha256.Size]byte

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

func (f Fingerprint) ShardKey() (string, string) {
	s := f.String()
	return s[0:2], s[2:]
}

func (f Fingerprint) Valid() bool {
	return f != Fingerprint{}
}

// digesterPool recycles sha256 hashers so short-lived fingerprinting
// calls don't churn the allocator under heavy compiler-probe traffic.
var digesterPool = sync.Pool{
	New: func() interface{} { return sha256.New() },
}

func acquireDigester() hash.Hash {
	h := digesterPool.Get().(hash.Hash)
	h.Reset()
	return h
}

func releaseDigester(h hash.Hash) {
	digesterPool.Put(h)
}

// StringFingerprint hashes a string's bytes without an intermediate
// copy.
func StringFingerprint(s string) Fingerprint {
	h := acquireDigester()
	defer releaseDigester(h)
	io.WriteString(h, s)
	var f Fingerprint
	h.Sum(f[:0])
	return f
}

// BytesFingerprint hashes a byte slice.
func BytesFingerprint(b []byte) Fingerprint {
	h := acquireDigester()
	defer releaseDigester(h)
	h.Write(b)
	var f Fingerprint
	h.Sum(f[:0])
	return f
}

// ReaderFingerprint streams r through the digest without buffering it
// whole, used for hashing compiler binaries and their subprograms.
func ReaderFingerprint(r io.Reader) (Fingerprint, error) {
	h := acquireDigester()
	defer releaseDigester(h)
	if _, err := io.Copy(h, r); err != nil {
		return Fingerprint{}, err
	}
	var f Fingerprint
	h.Sum(f[:0])
	return f, nil
}

// CombineFingerprints folds multiple fingerprints into one, order
// sensitive, used to key an output-cache entry on the tuple of
// (normalized arguments, local compiler hash, real compiler hash).
func CombineFingerprints(parts ...Fingerprint) Fingerprint {
	h := acquireDigester()
	defer releaseDigester(h)
	for _, p := range parts {
		h.Write(p[:])
	}
	var f Fingerprint
	h.Sum(f[:0])
	return f
}
