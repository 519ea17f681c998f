package parser

import (
	"path/filepath"
	"strings"
)

// parseMsvcLike implements the cl.exe / clang-cl flag grammar. Tokens
// starting with "/" or "-" are flag candidates; everything else is an
// input. Unlike gcc-like, unrecognized flag-shaped tokens are kept in
// the expanded args without being recorded in UnknownFlags, since
// cl.exe treats unknown switches as filenames by default.
func parseMsvcLike(inv *Invocation, args []string) *Invocation {
	var lastBreproFlag string // tracks last-one-wins across /Brepro family
	var outputObj string
	var outputIsDir bool
	isClangCl := inv.CompilerKind == CompilerClangCl

	i := 0
	for i < len(args) {
		tok := args[i]
		if tok == "" {
			i++
			continue
		}
		if tok[0] != '/' && tok[0] != '-' {
			inv.addInput(tok)
			i++
			continue
		}
		// normalize the leading switch character for matching purposes.
		body := tok[1:]

		switch {
		case strings.HasPrefix(body, "Fo"):
			arg := strings.TrimPrefix(body, "Fo")
			outputObj = arg
			outputIsDir = strings.HasSuffix(arg, "\\") || strings.HasSuffix(arg, "/")
		case strings.HasPrefix(body, "Fd"), strings.HasPrefix(body, "Fp"), strings.HasPrefix(body, "Fa"):
			// pdb/pch/asm output path, not tracked as a primary output.
		case strings.HasPrefix(body, "FI"):
			inv.RootIncludes = append(inv.RootIncludes, strings.TrimPrefix(body, "FI"))
		case strings.HasPrefix(body, "Yu") || strings.HasPrefix(body, "Yc"):
			inv.UsesPch = strings.HasPrefix(body, "Yu")
			inv.CreatesPch = strings.HasPrefix(body, "Yc")
		case body == "TC":
			inv.Lang = "c"
		case body == "TP":
			inv.Lang = "c++"
		case strings.HasPrefix(body, "Tc"):
			inv.addInput(strings.TrimPrefix(body, "Tc"))
			inv.Lang = "c"
		case strings.HasPrefix(body, "Tp"):
			inv.addInput(strings.TrimPrefix(body, "Tp"))
			inv.Lang = "c++"
		case strings.HasPrefix(body, "D"):
			handleDefine(inv, strings.TrimPrefix(body, "D"))
		case strings.HasPrefix(body, "U"):
			inv.addMacro(strings.TrimPrefix(body, "U"), false, "")
		case strings.HasPrefix(body, "I"):
			inv.IncludeDirsUser = append(inv.IncludeDirsUser, strings.TrimPrefix(body, "I"))
		case body == "MD" || body == "MT" || body == "MDd" || body == "MTd":
			applyMsvcRuntimeMacros(inv, body)
		case strings.HasPrefix(body, "O"):
			inv.addCompilerInfoFlag(tok)
		case strings.HasPrefix(body, "arch:"):
			inv.addCompilerInfoFlag(tok)
		case strings.HasPrefix(body, "Zc:"):
			if body == "Zc:wchar_t" {
				inv.ImplicitMacros = append(inv.ImplicitMacros,
					Macro{Name: "_NATIVE_WCHAR_T_DEFINED", Defined: true},
					Macro{Name: "_WCHAR_T_DEFINED", Defined: true})
			}
		case body == "Zi" || body == "ZI":
			if !isClangCl {
				inv.RequireMspdbserv = true
			}
		case body == "Z7":
			// embedded debug info, no mspdbsrv dependency.
		case strings.HasPrefix(body, "GR"):
			// RTTI toggle, cache-neutral beyond its own object.
		case strings.HasPrefix(body, "EH"):
			// exception model, cache-neutral.
		case strings.HasPrefix(body, "RTC"):
			inv.ImplicitMacros = append(inv.ImplicitMacros, Macro{Name: "__MSVC_RUNTIME_CHECKS", Defined: true})
		case body == "X":
			inv.HasNostdinc = true
		case body == "permissive-":
			// conformance toggle.
		case strings.HasPrefix(body, "std:"):
			inv.addCompilerInfoFlag(tok)
		case strings.HasPrefix(body, "source-charset:"), strings.HasPrefix(body, "execution-charset:"), body == "utf-8":
			// charset handling, cache-neutral.
		case strings.HasPrefix(body, "validate-charset"):
		case strings.HasPrefix(body, "diagnostics:"):
		case strings.HasPrefix(body, "wd"), strings.HasPrefix(body, "we"), strings.HasPrefix(body, "w"):
		case body == "W0" || body == "W1" || body == "W2" || body == "W3" || body == "W4" || body == "WX":
		case body == "nologo":
		case body == "c":
			inv.Mode = ModeCompile
		case body == "Brepro":
			lastBreproFlag = "Brepro"
		case body == "Brepro-":
			lastBreproFlag = "Brepro-"
		case body == "FC":
		case body == "FS":
		case body == "MP":
		case strings.HasPrefix(body, "analyze"):
		case strings.HasPrefix(body, "errorReport:"):
		case body == "showIncludes":
		case body == "await":
		case strings.HasPrefix(body, "constexpr:"):
		case strings.HasPrefix(body, "guard:"):
		case strings.HasPrefix(body, "ZH:"):
		case isClangCl && handleClangClGccStyle(inv, &lastBreproFlag, tok, args, &i):
			// handled inline, index already advanced if needed.
		default:
			// unrecognized flag-shaped token: keep, don't fail and don't
			// record as unknown (cl.exe semantics).
		}
		i++
	}

	if lastBreproFlag != "" {
		inv.HasBrepro = lastBreproFlag == "Brepro"
	}

	inv.Mode = resolveMsvcMode(inv)
	resolveMsvcOutputs(inv, outputObj, outputIsDir)

	if inv.Lang == "" {
		ext := firstInputExt(inv)
		if cxxExts[ext] {
			inv.Lang = "c++"
		} else {
			inv.Lang = "c"
		}
	}
	inv.IsCplusplus = inv.Lang == "c++"
	if inv.IsCplusplus {
		inv.ImplicitMacros = append(inv.ImplicitMacros, Macro{Name: "__cplusplus", Defined: true})
	}

	return inv.ok()
}

func resolveMsvcMode(inv *Invocation) Mode {
	for _, a := range inv.ExpandedArgs {
		if a == "/c" || a == "-c" {
			return ModeCompile
		}
	}
	return ModeLink
}

func resolveMsvcOutputs(inv *Invocation, outputObj string, outputIsDir bool) {
	if inv.Mode != ModeCompile {
		return
	}
	for _, in := range inv.InputFiles {
		name := strings.TrimSuffix(filepath.Base(string(in)), filepath.Ext(string(in))) + ".obj"
		if outputObj != "" {
			if outputIsDir {
				inv.addOutput(filepath.Join(outputObj, name))
			} else if len(inv.InputFiles) == 1 {
				inv.addOutput(outputObj)
				continue
			}
		} else {
			inv.addOutput(name)
		}
	}
}

func applyMsvcRuntimeMacros(inv *Invocation, flag string) {
	switch flag {
	case "MDd", "MTd":
		inv.ImplicitMacros = append(inv.ImplicitMacros, Macro{Name: "_DEBUG", Defined: true})
	}
	if flag == "MT" || flag == "MTd" {
		inv.ImplicitMacros = append(inv.ImplicitMacros, Macro{Name: "_VC_NODEFAULTLIB", Defined: true})
	}
}

// handleClangClGccStyle accepts the gcc-style subset clang-cl permits
// alongside msvc switches. Returns true if tok was recognized.
func handleClangClGccStyle(inv *Invocation, lastBrepro *string, tok string, args []string, i *int) bool {
	if !strings.HasPrefix(tok, "-") {
		return false
	}
	next := func() string {
		if *i+1 < len(args) {
			*i++
			return args[*i]
		}
		return ""
	}
	switch {
	case tok == "-m64", tok == "-m32":
		inv.addCompilerInfoFlag(tok)
	case tok == "-isystem", tok == "-imsvc":
		// two-token form: keep the flag and its directory argument
		// adjacent in compiler_info_flags, per spec §8's ordering
		// invariant ("-isystem X" emits both tokens together).
		inv.addCompilerInfoFlag(tok, next())
	case strings.HasPrefix(tok, "-isystem"), strings.HasPrefix(tok, "-imsvc"):
		inv.addCompilerInfoFlag(tok)
	case tok == "-mllvm":
		inv.addCompilerInfoFlag(tok, next())
	case tok == "-Xclang":
		inv.addCompilerInfoFlag(tok, next())
	case strings.HasPrefix(tok, "-fsanitize="):
		inv.addCompilerInfoFlag(tok)
	case strings.HasPrefix(tok, "-fsanitize-blacklist="):
		inv.addCompilerInfoFlag(tok)
		inv.addOptionalInput(strings.TrimPrefix(tok, "-fsanitize-blacklist="))
	case tok == "-fno-sanitize-blacklist":
		inv.addCompilerInfoFlag(tok)
	case strings.HasPrefix(tok, "-fmsc-version="), strings.HasPrefix(tok, "-fms-compatibility-version="):
		inv.addCompilerInfoFlag(tok)
	case strings.HasPrefix(tok, "-std="):
		inv.addCompilerInfoFlag(tok)
	case tok == "-fcolor-diagnostics", tok == "-fno-standalone-debug", tok == "-fstandalone-debug":
		inv.addCompilerInfoFlag(tok)
	case tok == "-gcolumn-info", tok == "-gline-tables-only":
		inv.addCompilerInfoFlag(tok)
	case tok == "--analyze":
		inv.addCompilerInfoFlag(tok)
	case tok == "-mincremental-linker-compatible":
		*lastBrepro = "Brepro"
	case tok == "-mno-incremental-linker-compatible":
		*lastBrepro = "Brepro-"
	case tok == "-resource-dir":
		inv.HasResourceDir = true
		inv.addCompilerInfoFlag(tok, next())
	default:
		return false
	}
	return true
}
