// Package outputcache implements the local, content-addressed store
// of compiled outputs: a sharded on-disk layout keyed by a 64-hex
// SHA-256 digest, a startup loader that rebuilds the in-memory index
// from whatever survives on disk, and a background GC goroutine that
// enforces byte/entry bounds with LRU-by-mtime eviction.
package outputcache

import (
	"github.com/goma/gomacc/internal/base"
)

// File is one stored output: its relative name, raw content, and
// whether it must be restored with the executable bit set.
type File struct {
	Filename     string
	Content      []byte
	IsExecutable bool
}

func (f *File) Serialize(ar base.Archive) {
	ar.String(&f.Filename)
	ar.Bytes(&f.Content)
	ar.Bool(&f.IsExecutable)
}

// Entry is the value stored at <root>/<kk>/<key>: the full set of
// output files produced by one cached compilation.
type Entry struct {
	Files     []File
	TotalSize int64
}

func (e *Entry) Serialize(ar base.Archive) {
	n := uint32(len(e.Files))
	ar.Uint32(&n)
	if ar.Loading() {
		e.Files = make([]File, n)
	}
	for i := range e.Files {
		ar.Serializable(&e.Files[i])
	}
	ar.Int64(&e.TotalSize)
}

func newEntry(files []File) *Entry {
	var total int64
	for _, f := range files {
		total += int64(len(f.Content))
	}
	return &Entry{Files: files, TotalSize: total}
}
