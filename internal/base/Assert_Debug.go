//go:build gomacc_debug

package base

const DebugEnabled = true

// Assert panics if pred() returns false. Compiled out entirely unless
// the gomacc_debug build tag is set, so predicates can be arbitrarily
// expensive without a release-mode cost.
func Assert(pred func() bool) {
	if !pred() {
		LogPanic(nil, "assertion failed")
	}
}

// AssertErr reports an invariant violation carried as an error value.
func AssertErr(fn func() error) {
	if err := fn(); err != nil {
		LogPanic(nil, "assertion failed: %v", err)
	}
}

// AssertNotReached marks code paths that must never execute.
func AssertNotReached() {
	LogPanic(nil, "assert not reached")
}
