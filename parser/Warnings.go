package parser

import "strings"

// knownWarnings is the compiled-in allow-list of canonical gcc/clang
// warning names. -W<name>, -Wno-<name> and -Werror=<name> are all
// accepted silently when <name> (with a leading "no-" stripped) is in
// this set; anything else is recorded as unknown rather than failing
// the parse. This is a representative subset of the ~300-entry table
// the real compilers expose, covering the warnings exercised most
// often in the wild.
var knownWarnings = buildWarningSet([]string{
	"all", "extra", "error", "pedantic", "pedantic-errors",
	"unused", "unused-variable", "unused-parameter", "unused-function",
	"unused-value", "unused-but-set-variable", "unused-result",
	"unused-label", "unused-local-typedefs", "unused-private-field",
	"uninitialized", "maybe-uninitialized", "return-type", "switch",
	"switch-enum", "switch-default", "implicit-fallthrough",
	"sign-compare", "sign-conversion", "conversion", "narrowing",
	"shadow", "shadow-field", "format", "format-security",
	"format-nonliteral", "format-truncation", "format-overflow",
	"missing-field-initializers", "missing-declarations",
	"missing-prototypes", "missing-braces", "parentheses",
	"reorder", "non-virtual-dtor", "overloaded-virtual",
	"delete-non-virtual-dtor", "deprecated", "deprecated-declarations",
	"deprecated-copy", "deprecated-this-capture",
	"cast-align", "cast-qual", "old-style-cast", "useless-cast",
	"float-equal", "double-promotion", "strict-aliasing",
	"strict-overflow", "array-bounds", "stringop-overflow",
	"bool-compare", "bool-operation", "logical-op", "logical-not-parentheses",
	"null-dereference", "nonnull", "nonnull-compare",
	"self-assign", "self-move", "tautological-compare",
	"tautological-constant-out-of-range-compare",
	"unreachable-code", "unreachable-code-return", "infinite-recursion",
	"empty-body", "comment", "trigraphs", "write-strings",
	"pointer-arith", "pointer-sign", "pointer-compare",
	"address", "aggressive-loop-optimizations",
	"maybe-uninitialized", "vla", "variadic-macros", "long-long",
	"unknown-pragmas", "unknown-attributes", "attributes",
	"inline", "padded", "packed", "packed-bitfield-compat",
	"class-memaccess", "register", "volatile-register-var",
	"div-by-zero", "multichar", "endif-labels",
	"undef", "unused-macros", "builtin-macro-redefined",
	"invalid-pch", "invalid-offsetof", "int-to-pointer-cast",
	"pointer-to-int-cast", "abi", "abi-tag", "psabi",
	"exceptions", "noexcept", "terminate", "exit-time-destructors",
	"global-constructors", "weak-vtables", "undefined-var-template",
	"thread-safety", "thread-safety-analysis", "documentation",
	"documentation-unknown-command", "c++-compat", "c++11-compat",
	"c++14-compat", "c++17-compat", "c++20-compat", "c++98-compat",
	"c99-extensions", "gnu", "gnu-zero-variadic-macro-arguments",
	"extra-semi", "extra-tokens", "dangling-else",
	"absolute-value", "string-plus-int", "string-concatenation",
	"unevaluated-expression", "unused-comparison",
	"implicit-int", "implicit-function-declaration",
	"int-conversion", "incompatible-pointer-types",
	"enum-compare", "enum-conversion", "constant-conversion",
})

// takesIntegerWarnings is the sublist whose "=N" suffix form (e.g.
// -Wframe-larger-than=4096) is accepted.
var takesIntegerWarnings = buildWarningSet([]string{
	"frame-larger-than", "larger-than", "stack-usage",
	"inline-insertions", "alloc-size-larger-than",
	"alloca-larger-than", "vla-larger-than",
})

func buildWarningSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// classifyWarning decides whether tok (without its leading -W) is a
// recognized warning. It returns the canonical base name and whether
// the flag should be silently accepted.
func classifyWarning(tok string) (base string, ok bool) {
	name := tok
	if strings.HasPrefix(name, "error=") {
		name = strings.TrimPrefix(name, "error=")
	}
	name = strings.TrimPrefix(name, "no-")

	if idx := strings.IndexByte(name, '='); idx >= 0 {
		baseName, suffix := name[:idx], name[idx+1:]
		if takesIntegerWarnings[baseName] && isAllDigits(suffix) {
			return baseName, true
		}
		return name, false
	}

	if knownWarnings[name] {
		return name, true
	}
	return name, false
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
