package probe

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/goma/gomacc/internal/fsutil"
)

var reMsvcLogo = regexp.MustCompile(`Version (\S+) for (\S+)`)

// probeMsvc implements the cl.exe probe: version from the banner
// printed with no arguments, system paths and predefined macros from
// a sibling vcflags.exe dump.
func probeMsvc(ctx context.Context, localPath string, env []string, cwd string) *CompilerInfo {
	ci := newCompilerInfo(localPath)
	ci.Name = "cl.exe"
	ci.RealPath = localPath

	if err := fillLocalIdentity(ci, localPath); err != nil {
		return ci.fail(err.Error())
	}

	banner, _ := runCaptureCombined(ctx, localPath, nil, env, cwd)
	if m := reMsvcLogo.FindStringSubmatch(banner); m != nil {
		ci.Version = m[1]
		ci.Target = m[2]
	} else {
		return ci.fail("cl.exe: could not parse version banner")
	}

	vcflags := filepath.Join(filepath.Dir(localPath), "vcflags.exe")
	if fileExists(vcflags) {
		dummyC, err := os.CreateTemp("", "gomacc-*.c")
		if err == nil {
			dummyC.Close()
			defer os.Remove(dummyC.Name())
			out, err := runCapture(ctx, vcflags, []string{"/B1", dummyC.Name()}, env, cwd)
			if err == nil {
				ci.QuoteIncludePaths, ci.SystemIncludePaths, ci.PredefinedMacros = parseVcFlagsOutput(out)
			}
		}
	}

	ci.Found = true
	return ci
}

func probeClangCl(ctx context.Context, localPath string, infoFlags []string, env []string, cwd string, isCplusplus bool) *CompilerInfo {
	ci := newCompilerInfo(localPath)
	ci.Name = filepath.Base(localPath)
	ci.RealPath = localPath

	if err := fillLocalIdentity(ci, localPath); err != nil {
		return ci.fail(err.Error())
	}

	out, err := runCaptureCombined(ctx, localPath, append(append([]string{}, infoFlags...), "-###"), env, cwd)
	if err != nil {
		return ci.fail("clang-cl -### failed: " + err.Error())
	}
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "clang version") {
			ci.Version = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "clang version"))
			if i+1 < len(lines) {
				next := strings.TrimSpace(lines[i+1])
				ci.Target = strings.TrimPrefix(next, "Target: ")
			}
			break
		}
	}
	if ci.Version == "" {
		return ci.fail("clang-cl: could not parse version")
	}

	if err := resolveSystemIncludePaths(ctx, ci, localPath, infoFlags, env, cwd, isCplusplus); err != nil {
		return ci.fail(err.Error())
	}
	langFlag := "-xc"
	if isCplusplus {
		langFlag = "-xc++"
	}
	macroArgs := append(append([]string{}, infoFlags...), langFlag, "-E", "-dM", os.DevNull)
	macros, err := runCapture(ctx, localPath, macroArgs, env, cwd)
	if err == nil {
		ci.PredefinedMacros = macros
	}

	ci.Found = true
	return ci
}

func probeJavac(ctx context.Context, localPath string, env []string, cwd string) *CompilerInfo {
	ci := newCompilerInfo(localPath)
	ci.Name = filepath.Base(localPath)
	ci.RealPath = localPath
	ci.Target = "java"

	if err := fillLocalIdentity(ci, localPath); err != nil {
		return ci.fail(err.Error())
	}

	out, err := runCaptureCombined(ctx, localPath, []string{"-version"}, env, cwd)
	if err != nil {
		return ci.fail("javac -version failed: " + err.Error())
	}
	ci.Version = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(firstLine(out)), "javac "))

	ci.Found = true
	return ci
}

func probeClangTidy(ctx context.Context, localPath string, infoFlags []string, env []string, cwd string, isCplusplus, hasNoIntegratedAs bool) *CompilerInfo {
	ci := newCompilerInfo(localPath)
	ci.Name = "clang-tidy"
	ci.RealPath = localPath

	if err := fillLocalIdentity(ci, localPath); err != nil {
		return ci.fail(err.Error())
	}

	out, err := runCaptureCombined(ctx, localPath, []string{"-version"}, env, cwd)
	if err != nil {
		return ci.fail("clang-tidy -version failed: " + err.Error())
	}
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "LLVM version") {
			ci.Version = strings.TrimSpace(strings.TrimPrefix(trimmed, "LLVM version"))
			if i+1 < len(lines) {
				ci.Target = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[i+1]), "Default target:"))
			}
		}
	}

	siblingClang := filepath.Join(filepath.Dir(localPath), "clang")
	if fileExists(siblingClang) {
		inner := probeGccLike(ctx, siblingClang, infoFlags, env, cwd, isCplusplus, hasNoIntegratedAs)
		ci.QuoteIncludePaths = inner.QuoteIncludePaths
		ci.SystemIncludePaths = inner.SystemIncludePaths
		ci.CxxSystemIncludePaths = inner.CxxSystemIncludePaths
		ci.PredefinedMacros = inner.PredefinedMacros
		ci.Subprograms = inner.Subprograms
	}

	if ci.Version == "" {
		return ci.fail("clang-tidy: could not parse version banner")
	}

	ci.Found = true
	return ci
}

func fillLocalIdentity(ci *CompilerInfo, localPath string) error {
	hash, err := hashFile(localPath)
	if err != nil {
		return err
	}
	ci.LocalHash = hash
	ci.RealHash = hash

	id, err := fsutil.StatIdentity(localPath)
	if err != nil {
		return err
	}
	ci.LocalFileID = id
	ci.RealFileID = id
	return nil
}

// parseVcFlagsOutput parses vcflags.exe's dumped command line for /I
// and /D entries: every /I becomes a system include path (quote is
// always empty) and the /D entries become a reconstructed
// predefined-macros text.
func parseVcFlagsOutput(out string) (quote, system []string, macros string) {
	var macroLines []string
	for _, tok := range strings.Fields(out) {
		switch {
		case strings.HasPrefix(tok, "/I"):
			system = append(system, strings.TrimPrefix(tok, "/I"))
		case strings.HasPrefix(tok, "/D"):
			def := strings.TrimPrefix(tok, "/D")
			if idx := strings.IndexByte(def, '='); idx >= 0 {
				macroLines = append(macroLines, "#define "+def[:idx]+" "+def[idx+1:])
			} else {
				macroLines = append(macroLines, "#define "+def+" 1")
			}
		}
	}
	macros = strings.Join(macroLines, "\n")
	return
}
