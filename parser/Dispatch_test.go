package parser

import (
	"reflect"
	"testing"
)

func TestParseArgv_GccMinimal(t *testing.T) {
	inv := ParseArgv([]string{"gcc", "-c", "hello.c"}, "/tmp", nil)
	if !inv.Success {
		t.Fatalf("expected success, got failure: %s", inv.FailMessage)
	}
	if inv.Mode != ModeCompile {
		t.Errorf("mode = %v, want compile", inv.Mode)
	}
	if got := []string(inv.InputFiles); !reflect.DeepEqual(got, []string{"hello.c"}) {
		t.Errorf("input_files = %v", got)
	}
	if got := []string(inv.OutputFiles); !reflect.DeepEqual(got, []string{"hello.o"}) {
		t.Errorf("output_files = %v", got)
	}
	if len(inv.CompilerInfoFlags) != 0 {
		t.Errorf("compiler_info_flags = %v, want empty", inv.CompilerInfoFlags)
	}
	if inv.IsCplusplus {
		t.Errorf("is_cplusplus = true, want false")
	}
}

func TestParseArgv_DebugPrefixMapDedup(t *testing.T) {
	inv := ParseArgv([]string{
		"clang++",
		"-fdebug-prefix-map=/foo=/bar",
		"-fdebug-prefix-map=/foo=/baz",
		"-c", "hello.cc",
	}, "/tmp", nil)
	if !inv.Success {
		t.Fatalf("expected success, got: %s", inv.FailMessage)
	}
	if got, want := inv.FdebugPrefixMap["/foo"], "/bar"; got != want {
		t.Errorf("fdebug_prefix_map[/foo] = %q, want %q (first-write-wins)", got, want)
	}
	if len(inv.FdebugPrefixMap) != 1 {
		t.Errorf("fdebug_prefix_map has %d entries, want 1", len(inv.FdebugPrefixMap))
	}
	if len(inv.CompilerInfoFlags) != 0 {
		t.Errorf("compiler_info_flags = %v, want empty", inv.CompilerInfoFlags)
	}
}

func TestParseArgv_MsvcZi(t *testing.T) {
	inv := ParseArgv([]string{"cl", "/Zi", "/c", "hello.cc"}, `C:\tmp`, nil)
	if !inv.Success {
		t.Fatalf("expected success, got: %s", inv.FailMessage)
	}
	if inv.Mode != ModeCompile {
		t.Errorf("mode = %v, want compile", inv.Mode)
	}
	if got := []string(inv.OutputFiles); !reflect.DeepEqual(got, []string{"hello.obj"}) {
		t.Errorf("output_files = %v, want [hello.obj]", got)
	}
	if !inv.RequireMspdbserv {
		t.Errorf("require_mspdbserv = false, want true")
	}
}

func TestParseArgv_ClangClBreproLastWins(t *testing.T) {
	inv := ParseArgv([]string{"clang-cl.exe", "/Brepro", "/Brepro-", "/c", "hello.c"}, "/tmp", nil)
	if !inv.Success {
		t.Fatalf("expected success, got: %s", inv.FailMessage)
	}
	if inv.HasBrepro {
		t.Errorf("has_Brepro = true, want false (last flag was /Brepro-)")
	}
}

func TestParseArgv_ClangClIsystemTwoTokenForm(t *testing.T) {
	inv := ParseArgv([]string{"clang-cl.exe", "-isystem", "/usr/include", "/c", "hello.c"}, "/tmp", nil)
	if !inv.Success {
		t.Fatalf("expected success, got: %s", inv.FailMessage)
	}
	want := []string{"-isystem", "/usr/include"}
	if len(inv.CompilerInfoFlags) < 2 {
		t.Fatalf("compiler_info_flags = %v, want at least %v", inv.CompilerInfoFlags, want)
	}
	var found bool
	for i := 0; i+1 <= len(inv.CompilerInfoFlags)-1; i++ {
		if inv.CompilerInfoFlags[i] == "-isystem" && inv.CompilerInfoFlags[i+1] == "/usr/include" {
			found = true
		}
	}
	if !found {
		t.Errorf("compiler_info_flags = %v, want \"-isystem\" immediately followed by \"/usr/include\"", inv.CompilerInfoFlags)
	}
}

func TestParseArgv_OutputInputDisjoint(t *testing.T) {
	inv := ParseArgv([]string{"gcc", "-c", "hello.c", "-o", "hello.o"}, "/tmp", nil)
	if !inv.Success {
		t.Fatalf("expected success, got: %s", inv.FailMessage)
	}
	for _, out := range inv.OutputFiles {
		if inv.InputFiles.Contains(out) {
			t.Errorf("output %q also appears in input_files", out)
		}
	}
}

func TestParseArgv_PreprocessModeHasNoObjectOutput(t *testing.T) {
	inv := ParseArgv([]string{"gcc", "-E", "hello.c"}, "/tmp", nil)
	if !inv.Success {
		t.Fatalf("expected success, got: %s", inv.FailMessage)
	}
	if inv.Mode != ModePreprocess {
		t.Fatalf("mode = %v, want preprocess", inv.Mode)
	}
	for _, out := range inv.OutputFiles {
		if out.Extension() == ".o" || out.Extension() == ".s" {
			t.Errorf("preprocess mode produced object-like output %q", out)
		}
	}
}

func TestParseArgv_MDImpliesDependencyOutput(t *testing.T) {
	inv := ParseArgv([]string{"gcc", "-c", "-MD", "hello.c"}, "/tmp", nil)
	if !inv.Success {
		t.Fatalf("expected success, got: %s", inv.FailMessage)
	}
	if !inv.OutputFiles.Contains("hello.d") {
		t.Errorf("output_files = %v, want hello.d present", inv.OutputFiles)
	}
}

func TestParseArgv_WpDefinesAndUndefines(t *testing.T) {
	inv := ParseArgv([]string{"gcc", "-c", "-Wp,-Dfoo,-Ubar", "hello.c"}, "/tmp", nil)
	if !inv.Success {
		t.Fatalf("expected success, got: %s", inv.FailMessage)
	}
	var sawFoo, sawBar bool
	for _, m := range inv.Macros {
		if m.Name == "foo" && m.Defined {
			sawFoo = true
		}
		if m.Name == "bar" && !m.Defined {
			sawBar = true
		}
	}
	if !sawFoo {
		t.Errorf("macros = %+v, want foo defined", inv.Macros)
	}
	if !sawBar {
		t.Errorf("macros = %+v, want bar undefined", inv.Macros)
	}
}

func TestParseArgv_WpMDAddsDependencyOutputOnly(t *testing.T) {
	inv := ParseArgv([]string{"gcc", "-c", "-Wp,-MD,hello.d", "hello.c"}, "/tmp", nil)
	if !inv.Success {
		t.Fatalf("expected success, got: %s", inv.FailMessage)
	}
	if !inv.OutputFiles.Contains("hello.d") {
		t.Errorf("output_files = %v, want hello.d present", inv.OutputFiles)
	}
	for _, u := range inv.UnknownFlags {
		if u == "-Wp,-MD" || u == "-Wp,hello.d" {
			t.Errorf("unknown_flags = %v, want no -Wp,-MD component recorded", inv.UnknownFlags)
		}
	}
}

func TestParseArgv_WpUnknownComponentGoesToUnknownFlagsOnly(t *testing.T) {
	inv := ParseArgv([]string{"gcc", "-c", "-Wp,-mystery", "hello.c"}, "/tmp", nil)
	if !inv.Success {
		t.Fatalf("expected success, got: %s", inv.FailMessage)
	}
	want := "-Wp,-mystery"
	found := false
	for _, u := range inv.UnknownFlags {
		if u == want {
			found = true
		}
	}
	if !found {
		t.Errorf("unknown_flags = %v, want %q present", inv.UnknownFlags, want)
	}
	if inv.OutputFiles.Contains("-mystery") {
		t.Errorf("output_files = %v, want no entry derived from the unknown -Wp component", inv.OutputFiles)
	}
}

func TestParseArgv_SplitDwarfAddsDwoPerObject(t *testing.T) {
	inv := ParseArgv([]string{"gcc", "-c", "-gsplit-dwarf", "hello.c"}, "/tmp", nil)
	if !inv.Success {
		t.Fatalf("expected success, got: %s", inv.FailMessage)
	}
	if !inv.OutputFiles.Contains("hello.dwo") {
		t.Errorf("output_files = %v, want hello.dwo present", inv.OutputFiles)
	}
}

func TestParseArgv_SanitizeBlacklistSurvivesNoBlacklistFlag(t *testing.T) {
	inv := ParseArgv([]string{
		"clang", "-c",
		"-fsanitize-blacklist=blacklist.txt",
		"-fno-sanitize-blacklist",
		"hello.c",
	}, "/tmp", nil)
	if !inv.Success {
		t.Fatalf("expected success, got: %s", inv.FailMessage)
	}
	if !inv.OptionalInputFiles.Contains("blacklist.txt") {
		t.Errorf("optional_input_files = %v, want blacklist.txt retained", inv.OptionalInputFiles)
	}
}

func TestParseArgv_UnknownWarningIsRecordedNotFatal(t *testing.T) {
	inv := ParseArgv([]string{"gcc", "-c", "-Wtotally-made-up-warning", "hello.c"}, "/tmp", nil)
	if !inv.Success {
		t.Fatalf("unknown warning should not fail the parse: %s", inv.FailMessage)
	}
	found := false
	for _, u := range inv.UnknownFlags {
		if u == "-Wtotally-made-up-warning" {
			found = true
		}
	}
	if !found {
		t.Errorf("unknown_flags = %v, want -Wtotally-made-up-warning present", inv.UnknownFlags)
	}
}

func TestParseArgv_KnownWarningBothPolarities(t *testing.T) {
	for _, arg := range []string{"-Wbool-compare", "-Wno-bool-compare"} {
		inv := ParseArgv([]string{"gcc", "-c", arg, "hello.c"}, "/tmp", nil)
		if !inv.Success {
			t.Fatalf("parse failed for %s: %s", arg, inv.FailMessage)
		}
		for _, u := range inv.UnknownFlags {
			if u == arg {
				t.Errorf("%s should be accepted silently, found in unknown_flags", arg)
			}
		}
	}
}

func TestClassifyCompiler(t *testing.T) {
	cases := []struct {
		path string
		want CompilerKind
	}{
		{"gcc", CompilerGccLike},
		{"g++", CompilerGccLike},
		{"x86_64-linux-gnu-g++-4.3", CompilerGccLike},
		{"clang", CompilerGccLike},
		{"clang++", CompilerGccLike},
		{"clang-tidy", CompilerClangTidy},
		{"clang-tidy-diff", CompilerGccLike}, // contains "clang" but isn't the exact clang-tidy basename
		{"cl", CompilerMsvcLike},
		{"cl.exe", CompilerMsvcLike},
		{"clang-cl.exe", CompilerClangCl},
		{"javac", CompilerJavac},
		{"java", CompilerJava},
	}
	for _, c := range cases {
		if got := ClassifyCompiler(c.path, false); got != c.want {
			t.Errorf("ClassifyCompiler(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}
