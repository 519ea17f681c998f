package probe

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/goma/gomacc/internal/base"
	"github.com/goma/gomacc/internal/fsutil"
	"github.com/goma/gomacc/internal/proc"
)

var (
	reClangArgv0  = regexp.MustCompile(`(?m)^\s*"([^"]+)"`)
	reCollectGcc  = regexp.MustCompile(`(?m)^COLLECT_GCC=(.+)$`)
	reResourceDir = regexp.MustCompile(`-resource-dir\s+(\S+)`)
)

const (
	markerQuoteStart  = `#include "..." search starts here:`
	markerSystemStart = `#include <...> search starts here:`
	markerEnd         = `End of search list.`
)

// probeGccLike implements spec §4.C steps 1-12 for the gcc/clang
// family.
func probeGccLike(ctx context.Context, localPath string, infoFlags []string, env []string, cwd string, isCplusplus, hasNoIntegratedAs bool) *CompilerInfo {
	ci := newCompilerInfo(localPath)
	ci.Name = filepath.Base(localPath)

	// step 1: resolve real_path
	ci.RealPath = resolveRealPath(ctx, localPath, env, cwd)

	// step 2: hash local/real
	localHash, err := hashFile(localPath)
	if err != nil {
		return ci.fail("hashing local compiler: " + err.Error())
	}
	ci.LocalHash = localHash
	realHash, err := hashFile(ci.RealPath)
	if err != nil {
		return ci.fail("hashing real compiler: " + err.Error())
	}
	ci.RealHash = realHash

	// step 3: file identity
	localID, err := fsutil.StatIdentity(localPath)
	if err != nil {
		return ci.fail("stat local compiler: " + err.Error())
	}
	ci.LocalFileID = localID
	realID, err := fsutil.StatIdentity(ci.RealPath)
	if err != nil {
		return ci.fail("stat real compiler: " + err.Error())
	}
	ci.RealFileID = realID

	// step 4: version
	dumpVersion, err := runCapture(ctx, localPath, []string{"-dumpversion"}, env, cwd)
	if err != nil {
		return ci.fail("running -dumpversion: " + err.Error())
	}
	fullVersion, err := runCapture(ctx, localPath, []string{"--version"}, env, cwd)
	if err != nil {
		return ci.fail("running --version: " + err.Error())
	}
	ci.Version = combineVersion(ci.Name, firstLine(dumpVersion), firstLine(fullVersion))

	// step 5: target
	dumpMachine, err := runCapture(ctx, localPath, []string{"-dumpmachine"}, env, cwd)
	if err != nil {
		return ci.fail("running -dumpmachine: " + err.Error())
	}
	ci.Target = firstLine(dumpMachine)

	// step 6: system include paths
	if err := resolveSystemIncludePaths(ctx, ci, localPath, infoFlags, env, cwd, isCplusplus); err != nil {
		return ci.fail("resolving system include paths: " + err.Error())
	}

	// step 7: predefined macros, dumped under the same -xc++/-xc language
	// flag the invocation itself is compiling as.
	langFlag := "-xc"
	if isCplusplus {
		langFlag = "-xc++"
	}
	macroArgs := append(append([]string{}, infoFlags...), langFlag, "-E", "-dM", os.DevNull)
	macros, err := runCapture(ctx, localPath, macroArgs, env, cwd)
	if err != nil {
		return ci.fail("resolving predefined macros: " + err.Error())
	}
	ci.PredefinedMacros = macros
	for name := range parseDefinedMacroNames(macros) {
		ci.SupportedPredefinedMacros[name] = true
	}

	// step 8: features/extensions/attributes/builtins
	if err := resolveFeatureQueries(ctx, ci, localPath, infoFlags, env, cwd); err != nil {
		return ci.fail("resolving feature queries: " + err.Error())
	}

	// step 9: subprograms
	subprograms, err := resolveSubprograms(ctx, localPath, env, cwd, hasNoIntegratedAs)
	if err != nil {
		return ci.fail("resolving subprograms: " + err.Error())
	}
	ci.Subprograms = subprograms

	// step 10: hash-rewrite table
	applyHashRewriteTable(ci)

	// step 11: gcc 5 hidden-macros quirk
	applyHiddenMacroQuirk(ci)

	ci.Found = true
	return ci
}

func resolveRealPath(ctx context.Context, localPath string, env []string, cwd string) string {
	bn := filepath.Base(localPath)
	if strings.Contains(bn, "clang") {
		out, err := runCapture(ctx, localPath, []string{"-xc", "-v", "-E", os.DevNull}, env, cwd)
		if err == nil {
			if m := reClangArgv0.FindStringSubmatch(out); m != nil {
				candidate := m[1]
				if elf := candidate + ".elf"; fileExists(elf) {
					return elf
				}
				return candidate
			}
		}
		return localPath
	}

	out, err := runCapture(ctx, localPath, []string{"-v"}, env, cwd)
	if err == nil {
		if m := reCollectGcc.FindStringSubmatch(out); m != nil {
			real := strings.TrimSpace(m[1])
			if withReal := real + ".real"; fileExists(withReal) {
				return withReal
			}
			return real
		}
	}
	return localPath
}

// resolveSystemIncludePaths follows the original compiler_info.cc
// SetBasicCompilerInfo split: for a C++ invocation, the c++ system
// include paths come from "-xc++ -v -E" and the c-style subpath from
// the same "-xc++ -v -E" plus "-nostdinc++" (never bare "-xc"); a
// C-only invocation only runs "-xc -v -E" and never probes C++ paths
// at all.
func resolveSystemIncludePaths(ctx context.Context, ci *CompilerInfo, localPath string, infoFlags []string, env []string, cwd string, isCplusplus bool) error {
	var cxxOut, cOut string

	if isCplusplus {
		cxxArgs := append(append([]string{}, infoFlags...), "-xc++", "-v", "-E", os.DevNull)
		out, err := runCaptureCombined(ctx, localPath, cxxArgs, env, cwd)
		if err != nil {
			return err
		}
		cxxOut = out

		cArgs := append(append([]string{}, infoFlags...), "-xc++", "-nostdinc++", "-v", "-E", os.DevNull)
		out, err = runCaptureCombined(ctx, localPath, cArgs, env, cwd)
		if err != nil {
			return err
		}
		cOut = out
	} else {
		cArgs := append(append([]string{}, infoFlags...), "-xc", "-v", "-E", os.DevNull)
		out, err := runCaptureCombined(ctx, localPath, cArgs, env, cwd)
		if err != nil {
			return err
		}
		cOut = out
	}

	if cxxOut != "" {
		quote, system, frameworks := parseIncludeSearchList(cxxOut)
		ci.QuoteIncludePaths = quote
		ci.CxxSystemIncludePaths = system
		ci.SystemFrameworkPaths = frameworks

		if m := reResourceDir.FindStringSubmatch(cxxOut); m != nil {
			ci.ResourceDir = m[1]
		}
		if strings.Contains(cxxOut, "-fuse-init-array") {
			ci.AdditionalFlags = append(ci.AdditionalFlags, "-fuse-init-array")
		}
	}

	_, cSystem, cFrameworks := parseIncludeSearchList(cOut)
	ci.SystemIncludePaths = cSystem
	if cxxOut == "" {
		ci.SystemFrameworkPaths = cFrameworks
		if m := reResourceDir.FindStringSubmatch(cOut); m != nil {
			ci.ResourceDir = m[1]
		}
	}

	return nil
}

// parseIncludeSearchList parses the cpp -v banner between the quote
// and system markers, and between the system marker and the end
// marker.
func parseIncludeSearchList(combined string) (quote, system, frameworks []string) {
	lines := strings.Split(combined, "\n")
	section := 0 // 0=before quote marker, 1=quote, 2=system, 3=done
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == markerQuoteStart:
			section = 1
			continue
		case trimmed == markerSystemStart:
			section = 2
			continue
		case trimmed == markerEnd:
			section = 3
			continue
		}
		if trimmed == "" || section == 0 || section == 3 {
			continue
		}
		isFramework := strings.HasSuffix(trimmed, "(framework directory)")
		path := strings.TrimSuffix(trimmed, " (framework directory)")
		if isFramework {
			frameworks = append(frameworks, path)
			continue
		}
		switch section {
		case 1:
			quote = append(quote, path)
		case 2:
			system = append(system, path)
		}
	}
	return
}

// parseDefinedMacroNames extracts the identifier from each "#define
// NAME ..." line of a -dM dump.
func parseDefinedMacroNames(dump string) map[string]bool {
	names := make(map[string]bool)
	for _, raw := range strings.Split(dump, "\n") {
		if !strings.HasPrefix(raw, "#define ") {
			continue
		}
		line := strings.TrimPrefix(raw, "#define ")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if idx := strings.IndexByte(name, '('); idx >= 0 {
			name = name[:idx]
		}
		names[name] = true
	}
	return names
}

func combineVersion(name, dumpVersion, fullVersionLine string) string {
	canon := strings.TrimPrefix(fullVersionLine, name+" ")
	canon = strings.TrimSpace(canon)
	if canon == fullVersionLine {
		// basename didn't prefix the line verbatim; strip the first
		// whitespace-delimited token instead.
		if idx := strings.IndexByte(fullVersionLine, ' '); idx >= 0 {
			canon = strings.TrimSpace(fullVersionLine[idx+1:])
		}
	}
	return dumpVersion + " " + canon
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func hashFile(path string) (base.Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return base.Fingerprint{}, err
	}
	defer f.Close()
	return base.ReaderFingerprint(f)
}

func runCapture(ctx context.Context, exe string, args []string, env []string, cwd string) (string, error) {
	result, err := proc.RunProcess(ctx, exe, args, proc.OptionEnvironment(env), proc.OptionWorkingDir(cwd), proc.OptionCaptureOutput(true))
	if err != nil {
		return "", err
	}
	if result.ExitCode != 0 {
		return "", &probeExecError{exe: exe, args: args, exitCode: result.ExitCode, stderr: string(result.Stderr)}
	}
	return string(result.Stdout), nil
}

// runCaptureCombined is used for the `-v -E` invocations whose banner
// is printed on stderr while cpp's expansion goes to stdout; both
// streams are concatenated since the include-search markers can land
// in either depending on compiler/version.
func runCaptureCombined(ctx context.Context, exe string, args []string, env []string, cwd string) (string, error) {
	result, err := proc.RunProcess(ctx, exe, args, proc.OptionEnvironment(env), proc.OptionWorkingDir(cwd), proc.OptionCaptureOutput(true))
	if err != nil {
		return "", err
	}
	// -v -E driver invocations on gcc/clang commonly exit 0 even though
	// the banner is on stderr; don't fail this probe step on a
	// non-zero exit, only surface a hard spawn failure.
	return string(result.Stdout) + "\n" + string(result.Stderr), nil
}

type probeExecError struct {
	exe      string
	args     []string
	exitCode int
	stderr   string
}

func (e *probeExecError) Error() string {
	return "exec " + e.exe + " " + strings.Join(e.args, " ") + ": exit " +
		strconv.Itoa(e.exitCode) + ": " + e.stderr
}
