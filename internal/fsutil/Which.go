package fsutil

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
)

var ErrNotFound = errors.New("fsutil: executable not found")

// Which resolves name to an absolute path using $PATH, the same way a
// shell would before exec'ing a compiler driver. If name already
// contains a path separator it is not looked up in $PATH: after an
// existence check it is made absolute against the working directory,
// covering a build system that invokes compilers by relative path.
func Which(name string) (Filename, error) {
	if filepath.Base(name) != name {
		if _, err := os.Stat(name); err != nil {
			return "", err
		}
		abs, err := filepath.Abs(name)
		if err != nil {
			return "", err
		}
		return Filename(abs), nil
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", ErrNotFound
	}
	return Filename(path), nil
}
