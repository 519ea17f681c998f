package probe

import (
	"context"

	"github.com/goma/gomacc/internal/base"
	"github.com/goma/gomacc/parser"
)

var LogProbe = base.NewLogCategory("probe")

// Probe drives localPath through the side-channel invocations
// appropriate to kind and returns a CompilerInfo. A failed probe is
// still returned, with Found=false and ErrorMessage set, rather than
// as an error -- a probe failure is cacheable state, not an
// exceptional condition.
func Probe(ctx context.Context, kind parser.CompilerKind, localPath string, infoFlags []string, env []string, cwd string, isCplusplus, hasNoIntegratedAs bool) *CompilerInfo {
	switch kind {
	case parser.CompilerGccLike:
		return probeGccLike(ctx, localPath, infoFlags, env, cwd, isCplusplus, hasNoIntegratedAs)
	case parser.CompilerMsvcLike:
		return probeMsvc(ctx, localPath, env, cwd)
	case parser.CompilerClangCl:
		return probeClangCl(ctx, localPath, infoFlags, env, cwd, isCplusplus)
	case parser.CompilerJavac, parser.CompilerJava:
		return probeJavac(ctx, localPath, env, cwd)
	case parser.CompilerClangTidy:
		return probeClangTidy(ctx, localPath, infoFlags, env, cwd, isCplusplus, hasNoIntegratedAs)
	default:
		ci := newCompilerInfo(localPath)
		return ci.fail("probe: unsupported compiler kind")
	}
}
