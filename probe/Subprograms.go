package probe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goma/gomacc/internal/fsutil"
)

var subprogramBasenames = map[string]bool{
	"as": true, "objcopy": true, "cc1": true, "cc1plus": true,
	"cpp": true, "nm": true,
}

// resolveSubprograms runs the driver with -v against a null input and
// records every invoked tool whose basename (after stripping a
// cross-compile prefix) is in subprogramBasenames. Per spec §4.C step
// 9, if the invocation saw -fno-integrated-as but no "as" subprogram
// turned up, the probe must fail outright rather than silently caching
// an incomplete subprogram set.
func resolveSubprograms(ctx context.Context, localPath string, env []string, cwd string, hasNoIntegratedAs bool) ([]Subprogram, error) {
	tmpOut, err := os.CreateTemp("", "gomacc-probe-*.o")
	if err != nil {
		return nil, err
	}
	tmpOut.Close()
	defer os.Remove(tmpOut.Name())

	out, err := runCaptureCombined(ctx, localPath, []string{"-v", "-xc", "-c", os.DevNull, "-o", tmpOut.Name()}, env, cwd)
	if err != nil {
		return nil, err
	}

	var subs []Subprogram
	seen := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, " ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		toolPath := fields[0]

		// subprograms found via bare PATH lookup (no directory
		// component) are intentionally skipped -- see spec's Open
		// Questions on backward compatibility.
		if !strings.Contains(toolPath, string(os.PathSeparator)) {
			continue
		}

		if !matchesSubprogramName(toolPath) {
			continue
		}
		toolPath = redirectChromeOSObjcopy(toolPath)
		if seen[toolPath] {
			continue
		}
		seen[toolPath] = true

		hash, err := hashFile(toolPath)
		if err != nil {
			continue
		}
		id, err := fsutil.StatIdentity(toolPath)
		if err != nil {
			continue
		}
		subs = append(subs, Subprogram{Path: toolPath, Hash: hash, FileID: id})
	}

	if hasNoIntegratedAs && !hasSubprogramNamed(subs, "as") {
		return nil, fmt.Errorf("-fno-integrated-as was requested but no \"as\" subprogram was invoked")
	}

	return subs, nil
}

func hasSubprogramNamed(subs []Subprogram, name string) bool {
	for _, s := range subs {
		bn := filepath.Base(s.Path)
		if bn == name || strings.HasSuffix(bn, "-"+name) {
			return true
		}
	}
	return false
}

func matchesSubprogramName(path string) bool {
	bn := filepath.Base(path)
	if subprogramBasenames[bn] {
		return true
	}
	for name := range subprogramBasenames {
		if strings.HasSuffix(bn, "-"+name) {
			return true
		}
	}
	return false
}

// redirectChromeOSObjcopy implements the ChromeOS quirk: an objcopy
// living under .../binutils-bin/<ver>[-gold]/objcopy is hashed from
// the sibling objcopy.elf instead.
func redirectChromeOSObjcopy(path string) string {
	if filepath.Base(path) != "objcopy" {
		return path
	}
	dir := filepath.Dir(path)
	if !strings.Contains(dir, "binutils-bin") {
		return path
	}
	elf := filepath.Join(dir, "objcopy.elf")
	if fileExists(elf) {
		return elf
	}
	return path
}
