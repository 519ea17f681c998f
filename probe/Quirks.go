package probe

import "strings"

// applyHiddenMacroQuirk implements the documented gcc 5 workaround: if
// the probed macro set lists __has_include but the preprocessor's own
// predefined-macros text mentions __has_include__ without -dM having
// emitted it, the identifier is still accepted by #ifdef at the start
// of translation and must be recorded as "hidden" so downstream
// consumers don't treat it as unsupported.
func applyHiddenMacroQuirk(ci *CompilerInfo) {
	_, hasInclude := ci.SupportedPredefinedMacros["__has_include"]
	_, hasIncludeDunder := ci.SupportedPredefinedMacros["__has_include__"]
	if hasInclude && !hasIncludeDunder && strings.Contains(ci.PredefinedMacros, "__has_include__") {
		ci.HiddenPredefinedMacros["__has_include__"] = true
	}

	_, hasIncludeNext := ci.SupportedPredefinedMacros["__has_include_next"]
	_, hasIncludeNextDunder := ci.SupportedPredefinedMacros["__has_include_next__"]
	if hasIncludeNext && !hasIncludeNextDunder && strings.Contains(ci.PredefinedMacros, "__has_include_next__") {
		ci.HiddenPredefinedMacros["__has_include_next__"] = true
	}
}
