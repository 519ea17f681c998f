package compilerinfo

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/goma/gomacc/parser"
)

func writeExecutable(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMakeKey_DistinctEnvSubsetsByFamily(t *testing.T) {
	env := map[string]string{"INCLUDE": "/foo", "CPATH": "/bar"}
	gcc := MakeKey("/usr/bin/gcc", nil, env, parser.CompilerGccLike)
	msvc := MakeKey("/usr/bin/cl.exe", nil, env, parser.CompilerMsvcLike)
	if gcc.EnvSubset == msvc.EnvSubset {
		t.Errorf("expected gcc-like and msvc-like env subsets to differ")
	}
}

func TestCache_GetCachesAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	fakeCompiler := writeExecutable(t, dir, "fakecc", "#!/bin/sh\nexit 1\n")

	c := NewCache()
	key := MakeKey(fakeCompiler, nil, nil, parser.CompilerGccLike)

	h1 := c.Get(context.Background(), key, parser.CompilerGccLike, nil, nil, dir, false, false)
	info1 := h1.Info()

	h2 := c.Get(context.Background(), key, parser.CompilerGccLike, nil, nil, dir, false, false)
	info2 := h2.Info()

	if info1 != info2 {
		t.Errorf("expected second Get to return the same cached CompilerInfo pointer")
	}

	h1.Release()
	h2.Release()
}

func TestCache_ConcurrentGetProbesOnce(t *testing.T) {
	dir := t.TempDir()
	fakeCompiler := writeExecutable(t, dir, "fakecc", "#!/bin/sh\nexit 1\n")

	c := NewCache()
	key := MakeKey(fakeCompiler, nil, nil, parser.CompilerGccLike)

	var wg sync.WaitGroup
	var seen int32
	results := make([]*Handle, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			atomic.AddInt32(&seen, 1)
			results[i] = c.Get(context.Background(), key, parser.CompilerGccLike, nil, nil, dir, false, false)
		}(i)
	}
	wg.Wait()

	first := results[0].Info()
	for i, h := range results {
		if h.Info() != first {
			t.Errorf("handle %d returned a different CompilerInfo than handle 0", i)
		}
		h.Release()
	}
}

func TestCache_StaleEntryIsReprobed(t *testing.T) {
	dir := t.TempDir()
	fakeCompiler := writeExecutable(t, dir, "fakecc", "#!/bin/sh\nexit 1\n")

	c := NewCache()
	key := MakeKey(fakeCompiler, nil, nil, parser.CompilerGccLike)

	h1 := c.Get(context.Background(), key, parser.CompilerGccLike, nil, nil, dir, false, false)
	old := h1.Info()
	h1.Release()

	// simulate a recompile: same path, new content, new mtime/inode.
	if err := os.WriteFile(fakeCompiler, []byte("#!/bin/sh\nexit 0\n# changed\n"), 0755); err != nil {
		t.Fatal(err)
	}

	h2 := c.Get(context.Background(), key, parser.CompilerGccLike, nil, nil, dir, false, false)
	defer h2.Release()
	if h2.Info() == old {
		t.Errorf("expected a stale entry (changed file content) to be re-probed")
	}
}
