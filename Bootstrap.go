// Package gomacc wires the flag parser, compiler prober, compiler-info
// cache and local output cache into the single entry point used by
// cmd/gomacc: a drop-in compiler wrapper that serves a cached result
// when one exists and transparently falls through to the real
// compiler otherwise.
package gomacc

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goma/gomacc/compilerinfo"
	"github.com/goma/gomacc/internal/base"
	"github.com/goma/gomacc/internal/env"
	"github.com/goma/gomacc/internal/fsutil"
	"github.com/goma/gomacc/internal/proc"
	"github.com/goma/gomacc/outputcache"
	"github.com/goma/gomacc/parser"
)

var LogGomacc = base.NewLogCategory("gomacc")

// process is the long-lived state shared by every invocation made
// through one CLI process: the compiler-info cache and the output
// cache (whose loader and GC goroutines run in the background) are
// constructed once here rather than inside Run.
type process struct {
	config      env.Config
	compilers   *compilerinfo.Cache
	outputs     *outputcache.Cache
	resolvePath func(raw string) string
}

var theProcess *process

func bootstrap() (*process, error) {
	if theProcess != nil {
		return theProcess, nil
	}
	cfg, err := env.Load()
	if err != nil {
		return nil, fmt.Errorf("gomacc: loading config: %w", err)
	}
	if err := cfg.Apply(); err != nil {
		return nil, fmt.Errorf("gomacc: applying config: %w", err)
	}

	bounds := outputcache.Bounds{
		MaxBytes:       cfg.MaxCacheBytes,
		EvictToBytes:   cfg.EvictToBytes,
		MaxEntries:     cfg.MaxCacheEnt,
		EvictToEntries: cfg.EvictToEnt,
	}

	theProcess = &process{
		config:      cfg,
		compilers:   compilerinfo.NewCache(),
		outputs:     outputcache.NewCacheWithCompression(cfg.CacheDir, bounds, cfg.CacheCompression),
		resolvePath: base.MemoizeComparable(resolveLocalPath),
	}
	return theProcess, nil
}

// Run parses argv as a compiler invocation (argv[0] is the compiler
// path, matching the contract spec §6 describes for the flag parser)
// and returns the process exit code gomacc should itself exit with.
func Run(argv []string) int {
	if len(argv) == 0 {
		fmt.Fprintln(os.Stderr, "gomacc: missing compiler argv")
		return 1
	}

	p, err := bootstrap()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "gomacc: getwd:", err)
		return 1
	}
	environ := os.Environ()

	inv := parser.ParseArgv(argv, cwd, environ)
	if !inv.Success {
		fmt.Fprintln(os.Stderr, "gomacc:", inv.FailMessage)
		return 1
	}

	return p.execute(context.Background(), inv, cwd, environ)
}

func (p *process) execute(ctx context.Context, inv *parser.Invocation, cwd string, environ []string) int {
	localPath := p.resolvePath(argv0Path(inv))
	key := compilerinfo.MakeKey(localPath, inv.CompilerInfoFlags, envToMap(environ), inv.CompilerKind)

	// Probes run to completion with no cancellation, per spec §5: the
	// original calls this primitive with WAIT_INFINITE.
	handle := p.compilers.Get(ctx, key, inv.CompilerKind, inv.CompilerInfoFlags, environ, cwd, inv.IsCplusplus, inv.HasNoIntegratedAs)
	defer handle.Release()

	if !handle.Info().Found {
		base.LogWarning(LogGomacc, "compiler probe failed for %q: %s", localPath, handle.Info().ErrorMessage)
		return p.runCompilerDirect(ctx, inv, cwd, environ)
	}

	// The output key folds the compiler's own content hashes into the
	// argument digest, so outputs of a replaced compiler binary at the
	// same path are never replayed.
	info := handle.Info()
	cacheKey := base.CombineFingerprints(base.StringFingerprint(outputcache.MakeCacheKey(inv)), info.LocalHash, info.RealHash).String()
	if entry, hit := p.outputs.Lookup(cacheKey); hit {
		if err := writeEntry(cwd, entry); err == nil {
			base.LogVerbose(LogGomacc, "cache hit for %q", cacheKey)
			return 0
		}
		base.LogWarning(LogGomacc, "cache hit for %q but restore failed, recompiling", cacheKey)
	}

	exitCode := p.runCompilerDirect(ctx, inv, cwd, environ)
	if exitCode == 0 {
		if files, err := readOutputs(cwd, inv); err == nil {
			p.outputs.SaveOutput(cacheKey, files)
		}
	}
	return exitCode
}

func (p *process) runCompilerDirect(ctx context.Context, inv *parser.Invocation, cwd string, environ []string) int {
	exe := argv0Path(inv)
	result, err := proc.RunProcess(ctx, exe, inv.ExpandedArgs[1:],
		proc.OptionEnvironment(environ),
		proc.OptionWorkingDir(cwd),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gomacc:", err)
		return 1
	}
	return result.ExitCode
}

func argv0Path(inv *parser.Invocation) string {
	if len(inv.ExpandedArgs) == 0 {
		return inv.CompilerBaseName
	}
	return inv.ExpandedArgs[0]
}

// resolveLocalPath turns a bare compiler name like "gcc" into the
// concrete path $PATH would resolve it to, matching the file-identity
// contract compilerinfo.Key and the probe's local/real path split are
// built on. If resolution fails the raw argv[0] is kept as-is; a
// direct compile of an unresolvable name then fails to start and
// gomacc prints that start error. process.resolvePath wraps
// this in base.MemoizeComparable since PATH resolution for a given
// compiler name is stable for the life of the process.
func resolveLocalPath(raw string) string {
	resolved, err := fsutil.Which(raw)
	if err != nil {
		return raw
	}
	return resolved.String()
}

func envToMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			m[kv[:idx]] = kv[idx+1:]
		}
	}
	return m
}

func writeEntry(cwd string, entry *outputcache.Entry) error {
	for _, f := range entry.Files {
		mode := os.FileMode(0644)
		if f.IsExecutable {
			mode = 0755
		}
		path := f.Filename
		if !strings.HasPrefix(path, "/") {
			path = cwd + "/" + path
		}
		if err := os.WriteFile(path, f.Content, mode); err != nil {
			return err
		}
	}
	return nil
}

func readOutputs(cwd string, inv *parser.Invocation) ([]outputcache.File, error) {
	files := make([]outputcache.File, 0, len(inv.OutputFiles))
	for _, out := range inv.OutputFiles {
		path := out.String()
		if !out.IsAbs() {
			path = cwd + "/" + path
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		files = append(files, outputcache.File{
			Filename:     out.String(),
			Content:      content,
			IsExecutable: info.Mode()&0111 != 0,
		})
	}
	return files, nil
}
