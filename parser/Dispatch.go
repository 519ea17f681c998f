package parser

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goma/gomacc/internal/base"
)

var LogParser = base.NewLogCategory("parser")

// ParseArgv is the package's single entry point: it expands @file
// tokens, classifies the compiler by argv[0]'s basename, and
// dispatches to the matching family parser. argv[0] is the compiler;
// env carries the NAME=VALUE strings relevant to parsing (currently
// unused beyond being threaded through for future cache-key subsets).
func ParseArgv(argv []string, cwd string, env []string) *Invocation {
	windows := runtime.GOOS == "windows"
	if len(argv) == 0 {
		inv := NewInvocation(cwd)
		return inv.fail("empty argv")
	}

	expanded, err := ExpandResponseFiles(argv, cwd, windows)
	if err != nil {
		inv := NewInvocation(cwd)
		return inv.fail(err.Error())
	}

	inv := NewInvocation(cwd)
	inv.ExpandedArgs = expanded
	inv.CompilerKind = ClassifyCompiler(expanded[0], windows)
	inv.CompilerBaseName = filepath.Base(expanded[0])
	inv.CompilerCanonicalName = canonicalCompilerName(inv.CompilerBaseName, inv.CompilerKind)

	switch inv.CompilerKind {
	case CompilerGccLike:
		return parseGccLike(inv, expanded[1:])
	case CompilerMsvcLike, CompilerClangCl:
		return parseMsvcLike(inv, expanded[1:])
	case CompilerJavac:
		return parseJavac(inv, expanded[1:])
	case CompilerJava:
		return parseJava(inv, expanded[1:])
	case CompilerClangTidy:
		return parseClangTidy(inv, expanded[1:])
	default:
		return inv.fail("unrecognized compiler: " + expanded[0])
	}
}

// ClassifyCompiler maps a compiler path's basename to a CompilerKind
// following the spec's argv[0] dispatch rules.
func ClassifyCompiler(path string, windows bool) CompilerKind {
	bn := filepath.Base(path)
	cmp := bn
	if windows {
		cmp = strings.ToLower(cmp)
	}
	noExt := strings.TrimSuffix(cmp, ".exe")

	switch {
	case noExt == "clang-tidy":
		return CompilerClangTidy
	case strings.Contains(cmp, "clang-cl"):
		return CompilerClangCl
	case isMsvcCl(noExt):
		return CompilerMsvcLike
	case strings.Contains(cmp, "clang++") || strings.Contains(cmp, "clang"):
		return CompilerGccLike
	case hasGccSuffix(noExt):
		return CompilerGccLike
	case noExt == "javac":
		return CompilerJavac
	case noExt == "java":
		return CompilerJava
	default:
		return CompilerUnknown
	}
}

// isMsvcCl matches a basename ending in "cl" that isn't a clang-*
// driver, e.g. "cl", "x86_64-cl".
func isMsvcCl(noExt string) bool {
	if strings.HasPrefix(noExt, "clang") {
		return false
	}
	return noExt == "cl" || strings.HasSuffix(noExt, "-cl")
}

// hasGccSuffix matches gcc/g++/cc/c++ with an optional cross-compile
// prefix such as "x86_64-linux-gnu-g++-4.3".
func hasGccSuffix(noExt string) bool {
	suffixes := []string{"gcc", "g++", "cc", "c++"}
	parts := strings.Split(noExt, "-")
	for i := len(parts) - 1; i >= 0; i-- {
		candidate := parts[i]
		for _, suf := range suffixes {
			if candidate == suf {
				return true
			}
		}
		// allow a trailing version number, e.g. "g++-4.3"
		if i == len(parts)-1 && looksLikeVersion(candidate) {
			continue
		}
		break
	}
	return false
}

func looksLikeVersion(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}

func canonicalCompilerName(baseName string, kind CompilerKind) string {
	name := strings.TrimSuffix(baseName, ".exe")
	switch kind {
	case CompilerGccLike:
		// strip cross-compile prefix and trailing version suffix,
		// e.g. "x86_64-linux-gnu-g++-4.3" -> "g++"
		for _, suf := range []string{"clang++", "clang", "g++", "gcc", "c++", "cc"} {
			if idx := strings.LastIndex(name, suf); idx >= 0 {
				tail := name[idx+len(suf):]
				if tail == "" || looksLikeVersion(strings.TrimPrefix(tail, "-")) {
					return suf
				}
			}
		}
		return name
	default:
		return name
	}
}
