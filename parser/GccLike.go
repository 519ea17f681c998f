package parser

import (
	"path/filepath"
	"strings"
)

var sourceToObjectExt = map[string]string{
	".c": ".o", ".cc": ".o", ".cpp": ".o", ".cxx": ".o", ".c++": ".o",
	".m": ".o", ".mm": ".o", ".s": ".o", ".S": ".o",
}

var headerExts = map[string]bool{
	".h": true, ".hh": true, ".hpp": true, ".hxx": true, ".H": true,
}

var cxxExts = map[string]bool{
	".cc": true, ".cpp": true, ".cxx": true, ".c++": true, ".mm": true,
	".hh": true, ".hpp": true, ".hxx": true,
}

// gccState accumulates the pieces parseGccLike needs across the
// single pass over argv before it can derive outputs at the end.
type gccState struct {
	outputArg        string
	explicitOutput   bool
	hasDashC         bool
	hasDashS         bool
	hasDashE         bool
	hasDashM         bool
	hasMD            bool
	hasMMD           bool
	mfArg            string
	gsplitDwarf      bool
	seenPlugins      map[string]bool
	profileUse       bool
	profileDir       string
	profileGenerate  bool
	imacrosCount     int
}

// parseGccLike implements the gcc/clang/clang++ flag grammar.
func parseGccLike(inv *Invocation, args []string) *Invocation {
	st := &gccState{seenPlugins: make(map[string]bool)}

	i := 0
	for i < len(args) {
		parseGccToken(inv, st, args, &i)
		if inv.FailMessage != "" {
			return inv
		}
		i++
	}

	if err := resolveGccMode(inv, st); err != "" {
		return inv.fail(err)
	}
	resolveGccOutputs(inv, st)
	resolveGccProfileUse(inv, st)

	if inv.Lang == "" {
		inv.Lang = languageFromExtension(firstInputExt(inv))
	}
	inv.IsCplusplus = strings.HasPrefix(inv.Lang, "c++") || inv.Lang == "objective-c++"

	for _, f := range inv.InputFiles {
		if f == "-" || f == "/dev/stdin" {
			inv.IsStdinInput = true
		}
	}

	return inv.ok()
}

// parseGccToken handles one flag. A flag that takes a following
// argument advances *i onto that argument itself; the caller then
// always advances by one more. It always returns true.
func parseGccToken(inv *Invocation, st *gccState, args []string, i *int) bool {
	tok := args[*i]

	next := func() (string, bool) {
		if *i+1 < len(args) {
			return args[*i+1], true
		}
		return "", false
	}
	takeNext := func() string {
		v, _ := next()
		*i++
		return v
	}

	switch {
	case tok == "-c":
		st.hasDashC = true
	case tok == "-S":
		st.hasDashS = true
	case tok == "-E":
		st.hasDashE = true
	case tok == "-M" || tok == "-MM":
		st.hasDashM = true
		inv.addCompilerInfoFlag(tok)
	case tok == "-MD" || tok == "-MMD":
		if tok == "-MD" {
			st.hasMD = true
		} else {
			st.hasMMD = true
		}
	case tok == "-MF":
		st.mfArg = takeNext()
	case strings.HasPrefix(tok, "-MF"):
		st.mfArg = strings.TrimPrefix(tok, "-MF")
	case strings.HasPrefix(tok, "-MT"):
		// affects .d content only, not tracked further here.
	case tok == "-o":
		st.outputArg = takeNext()
		st.explicitOutput = true
	case strings.HasPrefix(tok, "-o") && len(tok) > 2:
		st.outputArg = tok[2:]
		st.explicitOutput = true
	case tok == "-pipe":
		inv.HasPipe = true
	case tok == "-nostdinc":
		inv.HasNostdinc = true
		inv.addCompilerInfoFlag(tok)
	case tok == "-nostdinc++" || tok == "-nostdlibinc":
		inv.addCompilerInfoFlag(tok)
	case tok == "-ffreestanding":
		inv.HasFfreestanding = true
		inv.addCompilerInfoFlag(tok)
	case tok == "-fsyntax-only":
		inv.HasFsyntaxOnly = true
		inv.addCompilerInfoFlag(tok)
	case tok == "-fno-hosted":
		inv.HasFnoHosted = true
		inv.addCompilerInfoFlag(tok)
	case tok == "-fno-integrated-as":
		inv.HasNoIntegratedAs = true
	case tok == "-fmodules":
		inv.HasFmodules = true
	case tok == "-gsplit-dwarf":
		st.gsplitDwarf = true
	case tok == "-resource-dir" || strings.HasPrefix(tok, "-resource-dir="):
		inv.HasResourceDir = true
		if tok == "-resource-dir" {
			inv.addCompilerInfoFlag(tok, takeNext())
		} else {
			inv.addCompilerInfoFlag(tok)
		}
	case tok == "-I":
		inv.IncludeDirsUser = append(inv.IncludeDirsUser, takeNext())
	case strings.HasPrefix(tok, "-I") && len(tok) > 2:
		inv.IncludeDirsUser = append(inv.IncludeDirsUser, tok[2:])
	case tok == "-iquote" || strings.HasPrefix(tok, "-iquote="):
		if tok == "-iquote" {
			inv.QuoteDirs = append(inv.QuoteDirs, takeNext())
		} else {
			inv.QuoteDirs = append(inv.QuoteDirs, strings.TrimPrefix(tok, "-iquote="))
		}
	case tok == "-F":
		inv.FrameworkDirs = append(inv.FrameworkDirs, takeNext())
	case strings.HasPrefix(tok, "-F") && len(tok) > 2:
		inv.FrameworkDirs = append(inv.FrameworkDirs, tok[2:])
	case isInfoFlagWithArg(tok):
		// -isystem, -idirafter, -imultilib, -imultiarch, -iprefix,
		// -iwithprefix, -iwithprefixbefore, -isysroot, -B,
		// --system-header-prefix all take a following argument and
		// feed compiler_info_flags verbatim as a pair.
		arg := takeNext()
		inv.addCompilerInfoFlag(tok, arg)
		if tok == "-isystem" {
			inv.IncludeDirsSystemC = append(inv.IncludeDirsSystemC, arg)
		}
	case strings.HasPrefix(tok, "--sysroot="):
		inv.addCompilerInfoFlag(tok)
	case tok == "-include" || tok == "--include":
		inv.RootIncludes = append(inv.RootIncludes, takeNext())
	case tok == "-imacros" || tok == "--imacros":
		// -imacros files stay ahead of every -include file, each
		// group in its own command-line order.
		rest := append([]string{takeNext()}, inv.RootIncludes[st.imacrosCount:]...)
		inv.RootIncludes = append(inv.RootIncludes[:st.imacrosCount], rest...)
		st.imacrosCount++
	case strings.HasPrefix(tok, "-D"):
		handleDefine(inv, strings.TrimPrefix(tok, "-D"))
	case strings.HasPrefix(tok, "-U"):
		inv.addMacro(strings.TrimPrefix(tok, "-U"), false, "")
	case strings.HasPrefix(tok, "-Wp,"):
		handleWp(inv, strings.TrimPrefix(tok, "-Wp,"))
	case strings.HasPrefix(tok, "-Wa,"):
		handleWa(inv, strings.TrimPrefix(tok, "-Wa,"))
	case strings.HasPrefix(tok, "-Wl,"):
		inv.addUnknown(tok)
	case strings.HasPrefix(tok, "-Wno-") || strings.HasPrefix(tok, "-Werror=") || (strings.HasPrefix(tok, "-W") && tok != "-Wp," && tok != "-Wall"):
		handleWarning(inv, tok)
	case tok == "-Wall" || tok == "-Wextra":
		// implicitly in the allow-list, cache-neutral.
	case tok == "-Xclang":
		arg := takeNext()
		inv.addCompilerInfoFlag(tok, arg)
		if arg == "-load" {
			path := takeNext()
			if !st.seenPlugins[path] {
				st.seenPlugins[path] = true
				inv.HasFplugin = true
			}
			inv.addCompilerInfoFlag(arg, path)
		}
	case tok == "-mllvm":
		inv.addCompilerInfoFlag(tok, takeNext())
	case strings.HasPrefix(tok, "-fdebug-prefix-map="):
		body := strings.TrimPrefix(tok, "-fdebug-prefix-map=")
		idx := strings.IndexByte(body, '=')
		if idx <= 0 {
			inv.fail("malformed -fdebug-prefix-map: " + tok)
			return true
		}
		inv.SetFdebugPrefixMap(body[:idx], body[idx+1:])
	case strings.HasPrefix(tok, "-fsanitize="):
		for _, name := range strings.Split(strings.TrimPrefix(tok, "-fsanitize="), ",") {
			if name != "" {
				inv.Fsanitize[name] = true
			}
		}
		inv.addCompilerInfoFlag(tok)
	case tok == "-fno-sanitize-blacklist":
		inv.addCompilerInfoFlag(tok)
	case strings.HasPrefix(tok, "-fsanitize-blacklist="):
		inv.addCompilerInfoFlag(tok)
		inv.addOptionalInput(strings.TrimPrefix(tok, "-fsanitize-blacklist="))
	case strings.HasPrefix(tok, "-fprofile-sample-use="):
		inv.addOptionalInput(strings.TrimPrefix(tok, "-fprofile-sample-use="))
	case strings.HasPrefix(tok, "-fthinlto-index="):
		inv.ThinltoIndex = strings.TrimPrefix(tok, "-fthinlto-index=")
		inv.addOptionalInput(inv.ThinltoIndex)
	case strings.HasPrefix(tok, "-fmodule-map-file="):
		inv.ClangModuleMapFile = strings.TrimPrefix(tok, "-fmodule-map-file=")
		inv.addOptionalInput(inv.ClangModuleMapFile)
	case strings.HasPrefix(tok, "-fmodule-file="):
		body := strings.TrimPrefix(tok, "-fmodule-file=")
		if idx := strings.IndexByte(body, '='); idx >= 0 {
			inv.ClangModuleFile = ClangModuleFile{Name: body[:idx], Path: body[idx+1:]}
		} else {
			inv.ClangModuleFile = ClangModuleFile{Path: body}
		}
		inv.addOptionalInput(inv.ClangModuleFile.Path)
	case strings.HasPrefix(tok, "-fprofile-dir="):
		st.profileDir = strings.TrimPrefix(tok, "-fprofile-dir=")
	case strings.HasPrefix(tok, "-fprofile-generate"):
		st.profileGenerate = true
		if strings.Contains(tok, "=") {
			st.profileDir = tok[strings.IndexByte(tok, '=')+1:]
		}
	case strings.HasPrefix(tok, "-fprofile-use"):
		st.profileUse = true
		inv.addCompilerInfoFlag(tok)
	case isIdentityFlag(tok):
		inv.addCompilerInfoFlag(tok)
	case tok == "-x":
		inv.Lang = takeNext()
		inv.addCompilerInfoFlag("-x", inv.Lang)
	case strings.HasPrefix(tok, "-x"):
		inv.Lang = strings.TrimPrefix(tok, "-x")
		inv.addCompilerInfoFlag(tok)
	case tok == "-undef" || tok == "-no-canonical-prefixes":
		inv.addCompilerInfoFlag(tok)
	case strings.HasPrefix(tok, "-") || tok == "":
		// unrecognized flag-shaped token: not fatal.
		if tok != "" {
			inv.addUnknown(tok)
		}
	default:
		if isHeaderExt(filepath.Ext(tok)) {
			inv.CreatesPch = (st.hasDashC || !st.hasDashE)
		}
		inv.addInput(tok)
	}
	return true
}

// isInfoFlagWithArg lists the compiler_info_flags that take a
// separate following argument and are preserved as a pair.
func isInfoFlagWithArg(tok string) bool {
	switch tok {
	case "-isystem", "-idirafter", "-imultilib", "-imultiarch",
		"-iprefix", "-iwithprefix", "-iwithprefixbefore", "-isysroot",
		"-B", "--system-header-prefix":
		return true
	default:
		return false
	}
}

// isIdentityFlag matches the single-token identity-affecting flags
// enumerated in the spec (target, language, stdlib selection,
// optimization level, code-gen switches that alter built-ins).
func isIdentityFlag(tok string) bool {
	prefixes := []string{
		"-m", "-march=", "-target", "-arch", "--pnacl-", "-b", "-V",
		"-std=", "-stdlib=", "-O",
	}
	exact := map[string]bool{
		"-fopenmp": true, "-fPIC": true, "-fno-exceptions": true,
		"-fno-rtti": true, "-pthread": true,
	}
	if exact[tok] {
		return true
	}
	if strings.HasPrefix(tok, "-fvisibility=") ||
		strings.HasPrefix(tok, "-fmsc-version=") ||
		strings.HasPrefix(tok, "-fms-compatibility-version=") ||
		strings.HasPrefix(tok, "-fprofile-instr-generate") ||
		strings.HasPrefix(tok, "-fdebug-") {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(tok, p) {
			return true
		}
	}
	return false
}

func isHeaderExt(ext string) bool {
	return headerExts[ext]
}

func handleDefine(inv *Invocation, body string) {
	if idx := strings.IndexByte(body, '='); idx >= 0 {
		inv.addMacro(body[:idx], true, body[idx+1:])
	} else {
		inv.addMacro(body, true, "")
	}
}

func handleWp(inv *Invocation, body string) {
	parts := strings.Split(body, ",")
	for i := 0; i < len(parts); i++ {
		part := parts[i]
		switch {
		case strings.HasPrefix(part, "-D"):
			handleDefine(inv, strings.TrimPrefix(part, "-D"))
		case strings.HasPrefix(part, "-U"):
			inv.addMacro(strings.TrimPrefix(part, "-U"), false, "")
		case part == "-MD":
			if i+1 < len(parts) {
				i++
				inv.addOutput(parts[i])
			}
		default:
			inv.addUnknown("-Wp," + part)
		}
	}
}

func handleWa(inv *Invocation, body string) {
	for _, part := range strings.Split(body, ",") {
		inv.addUnknown("-Wa," + part)
	}
}

func handleWarning(inv *Invocation, tok string) {
	body := strings.TrimPrefix(tok, "-W")
	if _, ok := classifyWarning(body); !ok {
		inv.addUnknown(tok)
	}
}

// resolveGccMode applies the mode-selection rules and returns a
// non-empty fail message on malformed combinations.
func resolveGccMode(inv *Invocation, st *gccState) string {
	switch {
	case st.hasDashE, st.hasDashM && !(st.hasMD || st.hasMMD):
		inv.Mode = ModePreprocess
	case st.hasDashC, st.hasDashS, st.hasMD, st.hasMMD:
		inv.Mode = ModeCompile
	default:
		inv.Mode = ModeLink
	}
	return ""
}

func resolveGccOutputs(inv *Invocation, st *gccState) {
	if inv.Mode == ModePreprocess {
		return
	}

	primary := st.outputArg
	if primary == "" && len(inv.InputFiles) > 0 {
		primary = deriveObjectName(string(inv.InputFiles[0]), inv)
	}
	if primary != "" {
		inv.addOutput(primary)
	}

	if st.gsplitDwarf {
		for _, in := range inv.InputFiles {
			ext := filepath.Ext(string(in))
			if _, ok := sourceToObjectExt[ext]; ok {
				dwo := strings.TrimSuffix(string(in), ext) + ".dwo"
				inv.addOutput(dwo)
			}
		}
	}

	if st.hasMD || st.hasMMD {
		depFile := st.mfArg
		if depFile == "" && primary != "" {
			depFile = strings.TrimSuffix(primary, filepath.Ext(primary)) + ".d"
		}
		if depFile != "" {
			inv.addOutput(depFile)
		}
	}
}

func deriveObjectName(input string, inv *Invocation) string {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(input, ext)
	switch {
	case isHeaderExt(ext):
		inv.CreatesPch = true
		return input + ".gch"
	case inv.Mode == ModeCompile && sourceToObjectExt[ext] == ".o":
		if hasArgS(inv) {
			return stem + ".s"
		}
		return stem + ".o"
	default:
		return stem + ".o"
	}
}

func hasArgS(inv *Invocation) bool {
	for _, a := range inv.ExpandedArgs {
		if a == "-S" {
			return true
		}
	}
	return false
}

func resolveGccProfileUse(inv *Invocation, st *gccState) {
	if !st.profileUse {
		return
	}
	dir := st.profileDir
	if dir == "" {
		dir = "."
	}
	for _, in := range inv.InputFiles {
		gcda := filepath.Join(dir, filepath.Base(string(in))+".gcda")
		inv.addOptionalInput(gcda)
	}
}

func firstInputExt(inv *Invocation) string {
	if len(inv.InputFiles) == 0 {
		return ""
	}
	return filepath.Ext(string(inv.InputFiles[0]))
}

func languageFromExtension(ext string) string {
	if cxxExts[ext] {
		return "c++"
	}
	switch ext {
	case ".m":
		return "objective-c"
	case ".mm":
		return "objective-c++"
	case ".s", ".S":
		return "assembler"
	default:
		return "c"
	}
}
