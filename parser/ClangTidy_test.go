package parser

import (
	"reflect"
	"testing"
)

func TestParseArgv_ClangTidyRecordsDoubleDashArgs(t *testing.T) {
	dir := t.TempDir()
	inv := ParseArgv([]string{
		"clang-tidy", "-checks=*", "hello.cc", "--", "-std=c++17", "-DFOO",
	}, dir, nil)
	if !inv.Success {
		t.Fatalf("expected success, got: %s", inv.FailMessage)
	}
	if !inv.HasDoubleDash {
		t.Errorf("has_double_dash = false, want true")
	}
	if got, want := inv.PostDoubleDashArgs, []string{"-std=c++17", "-DFOO"}; !reflect.DeepEqual(got, want) {
		t.Errorf("post_double_dash_args = %v, want %v", got, want)
	}
}

func TestParseArgv_ClangTidyNoDoubleDash(t *testing.T) {
	dir := t.TempDir()
	inv := ParseArgv([]string{"clang-tidy", "hello.cc"}, dir, nil)
	if !inv.Success {
		t.Fatalf("expected success, got: %s", inv.FailMessage)
	}
	if inv.HasDoubleDash {
		t.Errorf("has_double_dash = true, want false")
	}
	if len(inv.PostDoubleDashArgs) != 0 {
		t.Errorf("post_double_dash_args = %v, want empty", inv.PostDoubleDashArgs)
	}
}
