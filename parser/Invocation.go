// Package parser classifies a raw compiler command line into a
// structured Invocation: inputs, outputs, include paths, macros, and
// the subset of flags that affect compiler identity. It never touches
// the filesystem except to expand @file response files and, for
// clang-tidy, to read a compile_commands.json database.
package parser

import "github.com/goma/gomacc/internal/fsutil"

// CompilerKind tags which flag grammar an Invocation was parsed with.
type CompilerKind int32

const (
	CompilerUnknown CompilerKind = iota
	CompilerGccLike
	CompilerMsvcLike
	CompilerClangCl
	CompilerJavac
	CompilerJava
	CompilerClangTidy
)

func (k CompilerKind) String() string {
	switch k {
	case CompilerGccLike:
		return "gcc_like"
	case CompilerMsvcLike:
		return "msvc_like"
	case CompilerClangCl:
		return "clang_cl"
	case CompilerJavac:
		return "javac"
	case CompilerJava:
		return "java"
	case CompilerClangTidy:
		return "clang_tidy"
	default:
		return "unknown"
	}
}

// Mode is the operating mode a compile line resolves to.
type Mode int32

const (
	ModeLink Mode = iota
	ModeCompile
	ModePreprocess
)

func (m Mode) String() string {
	switch m {
	case ModeCompile:
		return "compile"
	case ModePreprocess:
		return "preprocess"
	default:
		return "link"
	}
}

// Macro is a single -D/-U entry; Defined is false for a -U.
type Macro struct {
	Name    string
	Defined bool
	Value   string
}

// ClangModuleFile is the (name?, path) pair from -fmodule-file=.
type ClangModuleFile struct {
	Name string
	Path string
}

// Invocation is the fully classified result of parsing one compiler
// command line.
type Invocation struct {
	CompilerKind           CompilerKind
	CompilerBaseName       string
	CompilerCanonicalName  string
	Mode                   Mode
	Lang                   string
	IsCplusplus            bool
	IsStdinInput           bool
	HasNostdinc            bool
	HasPipe                bool
	HasNoIntegratedAs      bool
	HasFfreestanding       bool
	HasFsyntaxOnly         bool
	HasFnoHosted           bool
	HasWrapper             bool
	HasFplugin             bool
	HasFmodules            bool
	HasBrepro              bool
	HasResourceDir         bool
	CreatesPch             bool
	UsesPch                bool
	RequireMspdbserv       bool
	HasDoubleDash          bool

	ExpandedArgs       []string
	PostDoubleDashArgs []string
	Cwd                string

	InputFiles         fsutil.FileSet
	OutputFiles        fsutil.FileSet
	OutputDirs         []fsutil.Directory
	OptionalInputFiles fsutil.FileSet

	IncludeDirsUser      []string
	IncludeDirsSystemCxx []string
	IncludeDirsSystemC   []string
	FrameworkDirs        []string
	QuoteDirs            []string

	RootIncludes []string

	Macros           []Macro
	ImplicitMacros   []Macro
	CompilerInfoFlags []string
	UnknownFlags      []string

	FdebugPrefixMap map[string]string
	fdebugOrder     []string

	Fsanitize            map[string]bool
	ThinltoIndex         string
	ClangModuleMapFile   string
	ClangModuleFile      ClangModuleFile

	ProfileDir string

	Success     bool
	FailMessage string
}

// NewInvocation returns a zero Invocation ready to be populated by a
// family-specific parser.
func NewInvocation(cwd string) *Invocation {
	return &Invocation{
		Cwd:             cwd,
		FdebugPrefixMap: make(map[string]string),
		Fsanitize:       make(map[string]bool),
	}
}

// SetFdebugPrefixMap records a -fdebug-prefix-map=FROM=TO entry,
// first-write-wins per FROM as required by the parser's dedup rule.
func (inv *Invocation) SetFdebugPrefixMap(from, to string) {
	if _, exists := inv.FdebugPrefixMap[from]; exists {
		return
	}
	inv.FdebugPrefixMap[from] = to
	inv.fdebugOrder = append(inv.fdebugOrder, from)
}

// FdebugPrefixMapOrder returns the FROM keys in first-seen order.
func (inv *Invocation) FdebugPrefixMapOrder() []string {
	return inv.fdebugOrder
}

func (inv *Invocation) addInput(f string) {
	inv.InputFiles = inv.InputFiles.Append(fsutil.Filename(f))
}

func (inv *Invocation) addOutput(f string) {
	inv.OutputFiles = inv.OutputFiles.Append(fsutil.Filename(f))
}

func (inv *Invocation) addOptionalInput(f string) {
	inv.OptionalInputFiles = inv.OptionalInputFiles.Append(fsutil.Filename(f))
}

func (inv *Invocation) addCompilerInfoFlag(tokens ...string) {
	inv.CompilerInfoFlags = append(inv.CompilerInfoFlags, tokens...)
}

func (inv *Invocation) addUnknown(tok string) {
	inv.UnknownFlags = append(inv.UnknownFlags, tok)
}

func (inv *Invocation) addMacro(name string, defined bool, value string) {
	inv.Macros = append(inv.Macros, Macro{Name: name, Defined: defined, Value: value})
}

// fail marks the invocation as unparseable. Mirrors the spec's
// "surface success=false and a one-line message" contract.
func (inv *Invocation) fail(msg string) *Invocation {
	inv.Success = false
	inv.FailMessage = msg
	return inv
}

func (inv *Invocation) ok() *Invocation {
	inv.Success = true
	return inv
}
