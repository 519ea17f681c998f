package gomacc

import (
	"testing"

	"github.com/goma/gomacc/parser"
)

func TestEnvToMap(t *testing.T) {
	m := envToMap([]string{"FOO=bar", "BAZ=", "MALFORMED"})
	if m["FOO"] != "bar" {
		t.Errorf("FOO = %q, want bar", m["FOO"])
	}
	if _, ok := m["MALFORMED"]; ok {
		t.Errorf("expected entries without '=' to be skipped")
	}
}

func TestArgv0Path(t *testing.T) {
	inv := parser.NewInvocation("/tmp")
	inv.ExpandedArgs = []string{"/usr/bin/gcc", "-c", "hello.c"}
	if got := argv0Path(inv); got != "/usr/bin/gcc" {
		t.Errorf("argv0Path() = %q, want /usr/bin/gcc", got)
	}
}
