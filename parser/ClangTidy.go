package parser

import (
	"path/filepath"
	"strings"
)

// parseClangTidy implements clang-tidy's own flags and, on demand,
// composes the inner clang invocation it wraps by consulting a
// compile_commands.json database.
func parseClangTidy(inv *Invocation, args []string) *Invocation {
	inv.Lang = "c++"
	inv.IsCplusplus = true
	var buildPath string
	var extraArgsBefore, extraArgs []string

	i := 0
	for i < len(args) {
		tok := args[i]
		switch {
		case inv.HasDoubleDash:
			inv.PostDoubleDashArgs = append(inv.PostDoubleDashArgs, tok)
		case tok == "--":
			inv.HasDoubleDash = true
		case strings.HasPrefix(tok, "-p="):
			buildPath = strings.TrimPrefix(tok, "-p=")
		case tok == "-p":
			i++
			if i < len(args) {
				buildPath = args[i]
			}
		case strings.HasPrefix(tok, "-extra-arg-before="):
			extraArgsBefore = append(extraArgsBefore, strings.TrimPrefix(tok, "-extra-arg-before="))
		case strings.HasPrefix(tok, "-extra-arg="):
			extraArgs = append(extraArgs, strings.TrimPrefix(tok, "-extra-arg="))
		case strings.HasPrefix(tok, "-checks="),
			strings.HasPrefix(tok, "-export-fixes="),
			strings.HasPrefix(tok, "-header-filter="),
			strings.HasPrefix(tok, "-fix"):
			inv.addCompilerInfoFlag(tok)
		case strings.HasPrefix(tok, "-"):
			inv.addUnknown(tok)
		default:
			inv.addInput(tok)
		}
		i++
	}

	if len(inv.InputFiles) == 0 {
		return inv.fail("clang-tidy: no input file")
	}
	source := string(inv.InputFiles[0])

	var dbPath string
	var err error
	if buildPath != "" {
		dbPath = filepath.Join(buildPath, "compile_commands.json")
	} else {
		dbPath, err = FindCompilationDatabase(inv.Cwd)
		if err != nil {
			// no compile database: fall back to the bare source, matching
			// clang-tidy's behavior when run outside a build tree.
			inv.Mode = ModeCompile
			return inv.ok()
		}
	}

	db, err := LoadCompilationDatabase(dbPath)
	if err != nil {
		return inv.fail("clang-tidy: reading compile database: " + err.Error())
	}

	entry, found := db.FindCommandForSource(source)
	if !found {
		inv.Mode = ModeCompile
		return inv.ok()
	}

	innerCmd := entry.Arguments
	if len(innerCmd) == 0 && entry.Command != "" {
		innerCmd = tokenizePosixShell(entry.Command)
	}
	// Drop argv[0] (the compiler) and, if present, a leading "gomacc"
	// wrapper token -- the source acknowledges this unconditionally
	// skips one token even when the entry starts with a flag instead
	// of a program name, and preserves that quirk deliberately.
	if len(innerCmd) > 0 && innerCmd[0] == "gomacc" {
		innerCmd = innerCmd[1:]
	}
	if len(innerCmd) > 0 {
		innerCmd = innerCmd[1:]
	}

	composed := make([]string, 0, len(extraArgsBefore)+len(innerCmd)+len(extraArgs)+2)
	composed = append(composed, extraArgsBefore...)
	composed = append(composed, innerCmd...)
	composed = append(composed, extraArgs...)
	composed = append(composed, "-c", source)

	inv.CompilerInfoFlags = append(inv.CompilerInfoFlags, composed...)
	inv.Mode = ModeCompile
	return inv.ok()
}
