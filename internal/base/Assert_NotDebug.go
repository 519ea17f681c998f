//go:build !gomacc_debug

package base

const DebugEnabled = false

// Assert is a no-op in release builds: pred is never even called.
func Assert(pred func() bool) {}

// AssertErr is a no-op in release builds.
func AssertErr(fn func() error) {}

// AssertNotReached is a no-op in release builds.
func AssertNotReached() {}
