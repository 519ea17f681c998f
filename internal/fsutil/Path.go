// Package fsutil provides the small set of path and file-identity
// helpers shared by the flag parser, compiler prober and output
// cache: basename/dirname wrappers, @file path normalization and the
// platform file-identity tuple used to detect stale cache entries.
package fsutil

import (
	"path/filepath"
	"strings"
)

// Filename is a normalized absolute (or working-dir relative) path to
// a single file, kept as a distinct type so parser code never
// confuses a source path with a plain command-line token.
type Filename string

func (f Filename) String() string { return string(f) }

func (f Filename) Basename() string {
	return filepath.Base(string(f))
}

// Extension returns the file extension including the leading dot,
// lower-cased, e.g. ".cpp".
func (f Filename) Extension() string {
	return strings.ToLower(filepath.Ext(string(f)))
}

func (f Filename) Dirname() Directory {
	return Directory(filepath.Dir(string(f)))
}

func (f Filename) Normalize() Filename {
	return Filename(filepath.Clean(string(f)))
}

func (f Filename) IsAbs() bool {
	return filepath.IsAbs(string(f))
}

// Directory is a normalized directory path.
type Directory string

func (d Directory) String() string { return string(d) }

func (d Directory) File(name string) Filename {
	return Filename(filepath.Join(string(d), name))
}

func (d Directory) Normalize() Directory {
	return Directory(filepath.Clean(string(d)))
}

// FileSet is an ordered collection of Filename, used for the input
// lists the flag parser extracts from a compiler command line.
type FileSet []Filename

func (s FileSet) Contains(f Filename) bool {
	for _, it := range s {
		if it == f {
			return true
		}
	}
	return false
}

func (s FileSet) Append(f Filename) FileSet {
	if s.Contains(f) {
		return s
	}
	return append(s, f)
}
