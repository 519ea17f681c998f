package probe

import "testing"

func TestParseIncludeSearchList(t *testing.T) {
	input := `#include "..." search starts here:
 /usr/local/include
#include <...> search starts here:
 /usr/include
 /System/Library/Frameworks (framework directory)
End of search list.
`
	quote, system, frameworks := parseIncludeSearchList(input)
	if len(quote) != 1 || quote[0] != "/usr/local/include" {
		t.Errorf("quote = %v", quote)
	}
	if len(system) != 1 || system[0] != "/usr/include" {
		t.Errorf("system = %v", system)
	}
	if len(frameworks) != 1 || frameworks[0] != "/System/Library/Frameworks" {
		t.Errorf("frameworks = %v", frameworks)
	}
}

func TestCombineVersion(t *testing.T) {
	got := combineVersion("gcc", "4.4.3", "gcc (Ubuntu 4.4.3-4ubuntu5) 4.4.3")
	want := "4.4.3 (Ubuntu 4.4.3-4ubuntu5) 4.4.3"
	if got != want {
		t.Errorf("combineVersion() = %q, want %q", got, want)
	}
}

func TestParseFeatureOutput(t *testing.T) {
	out := "1\n0\n# 1 \"foo.cc\"\n\n3\n"
	values, err := parseFeatureOutput(out, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{1, 0, 3}
	for i, v := range want {
		if values[i] != v {
			t.Errorf("values[%d] = %d, want %d", i, values[i], v)
		}
	}
}

func TestParseFeatureOutput_CountMismatch(t *testing.T) {
	if _, err := parseFeatureOutput("1\n0\n", 3); err == nil {
		t.Errorf("expected error for line-count mismatch")
	}
}

func TestApplyHiddenMacroQuirk(t *testing.T) {
	ci := newCompilerInfo("/usr/bin/gcc-5")
	ci.SupportedPredefinedMacros["__has_include"] = true
	ci.PredefinedMacros = "#define __has_include__(x) __has_include(x)\n"

	applyHiddenMacroQuirk(ci)

	if !ci.HiddenPredefinedMacros["__has_include__"] {
		t.Errorf("expected __has_include__ to be recorded as hidden")
	}
}

func TestApplyHiddenMacroQuirk_NoQuirkWhenAlreadyEmitted(t *testing.T) {
	ci := newCompilerInfo("/usr/bin/gcc-7")
	ci.SupportedPredefinedMacros["__has_include"] = true
	ci.SupportedPredefinedMacros["__has_include__"] = true
	ci.PredefinedMacros = "#define __has_include__(x) __has_include(x)\n"

	applyHiddenMacroQuirk(ci)

	if ci.HiddenPredefinedMacros["__has_include__"] {
		t.Errorf("should not mark hidden when -dM already emitted it")
	}
}

func TestRedirectChromeOSObjcopy_NoRedirectOutsideBinutilsBin(t *testing.T) {
	path := "/usr/bin/objcopy"
	if got := redirectChromeOSObjcopy(path); got != path {
		t.Errorf("redirectChromeOSObjcopy(%q) = %q, want unchanged", path, got)
	}
}

func TestParseDefinedMacroNames(t *testing.T) {
	dump := "#define __GNUC__ 4\n#define __STDC__ 1\nnotadefine\n#define FUNC(x) x\n"
	names := parseDefinedMacroNames(dump)
	for _, want := range []string{"__GNUC__", "__STDC__", "FUNC"} {
		if !names[want] {
			t.Errorf("parseDefinedMacroNames missing %q: %v", want, names)
		}
	}
}
