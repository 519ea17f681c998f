package fsutil

import "os"

// FileIdentity captures enough of a file's metadata to detect that it
// changed without re-reading its contents. The prober records it for
// a compiler and its subprograms, and the compiler-info cache uses it
// to decide whether a previously probed path is still fresh.
type FileIdentity struct {
	Device    uint64
	Inode     uint64
	ModTimeNS int64
	Size      int64
}

func (id FileIdentity) IsZero() bool {
	return id == FileIdentity{}
}

// Equals reports whether two identities refer to the same file
// content, not merely the same path: a recompiled binary at the same
// path gets a different identity.
func (id FileIdentity) Equals(other FileIdentity) bool {
	return id == other
}

// StatIdentity stats path and returns its FileIdentity.
func StatIdentity(path string) (FileIdentity, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileIdentity{}, err
	}
	return identityFromFileInfo(info), nil
}
