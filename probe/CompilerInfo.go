// Package probe drives a local compiler through several side-channel
// invocations to recover a stable fingerprint of its identity:
// version, target triple, system include paths, predefined macros,
// and the set of supported language features/extensions/builtins.
package probe

import (
	"time"

	"github.com/goma/gomacc/internal/base"
	"github.com/goma/gomacc/internal/fsutil"
)

// Subprogram is an auxiliary tool invoked by the driver compiler (as,
// objcopy, cc1, a clang plugin) whose identity is part of the
// compiler fingerprint.
type Subprogram struct {
	Path   string
	Hash   base.Fingerprint
	FileID fsutil.FileIdentity
}

// CompilerInfo is a record bound to one local compiler binary, the
// value stored by the compiler-info cache (component D).
type CompilerInfo struct {
	LocalPath string
	RealPath  string
	LocalHash base.Fingerprint
	RealHash  base.Fingerprint
	LocalFileID fsutil.FileIdentity
	RealFileID  fsutil.FileIdentity

	Name    string
	Version string
	Target  string
	Lang    string

	QuoteIncludePaths     []string
	CxxSystemIncludePaths []string
	SystemIncludePaths    []string
	SystemFrameworkPaths  []string

	PredefinedMacros       string
	HiddenPredefinedMacros map[string]bool
	SupportedPredefinedMacros map[string]bool

	HasFeature           map[string]int
	HasExtension         map[string]int
	HasAttribute         map[string]int
	HasCppAttribute      map[string]int
	HasDeclspecAttribute map[string]int
	HasBuiltin           map[string]int

	Subprograms []Subprogram

	AdditionalFlags []string
	ResourceDir     string

	Found       bool
	ErrorMessage string
	FailedAt    time.Time

	LastUsedAt time.Time
}

func newCompilerInfo(localPath string) *CompilerInfo {
	return &CompilerInfo{
		LocalPath:                 localPath,
		HiddenPredefinedMacros:    make(map[string]bool),
		SupportedPredefinedMacros: make(map[string]bool),
		HasFeature:                make(map[string]int),
		HasExtension:              make(map[string]int),
		HasAttribute:              make(map[string]int),
		HasCppAttribute:           make(map[string]int),
		HasDeclspecAttribute:      make(map[string]int),
		HasBuiltin:                make(map[string]int),
	}
}

// fail marks the probe as failed, appending msg to any prior error so
// a multi-step failure accumulates a full explanation.
func (ci *CompilerInfo) fail(msg string) *CompilerInfo {
	ci.Found = false
	if ci.ErrorMessage != "" {
		ci.ErrorMessage += "\n" + msg
	} else {
		ci.ErrorMessage = msg
	}
	ci.FailedAt = probeNow()
	return ci
}

// probeNow is indirected so tests can freeze time if needed; in
// production it is just time.Now.
var probeNow = time.Now
