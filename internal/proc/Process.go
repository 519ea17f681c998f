// Package proc runs compiler subprocesses in their own process group
// so a cancelled probe or build can be torn down without leaking
// child processes, and samples their peak resident memory while they
// run.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/goma/gomacc/internal/base"
)

var LogProc = base.NewLogCategory("proc")

// Options configures a single RunProcess call. The zero value runs
// the command with the parent's environment, inheriting stdio.
type Options struct {
	Environment    []string
	WorkingDir     string
	CaptureOutput  bool
	OnOutput       func(line []byte)
	GracePeriod    time.Duration
	SampleRSSEvery time.Duration
}

type Option func(*Options)

func OptionEnvironment(env []string) Option {
	return func(o *Options) { o.Environment = env }
}

func OptionWorkingDir(dir string) Option {
	return func(o *Options) { o.WorkingDir = dir }
}

func OptionCaptureOutput(capture bool) Option {
	return func(o *Options) { o.CaptureOutput = capture }
}

func OptionOnOutput(fn func(line []byte)) Option {
	return func(o *Options) { o.OnOutput = fn }
}

// OptionGracePeriod sets how long RunProcess waits after SIGINT before
// escalating to SIGTERM when the context is cancelled.
func OptionGracePeriod(d time.Duration) Option {
	return func(o *Options) { o.GracePeriod = d }
}

// OptionSampleRSS enables periodic resident-memory sampling of the
// direct child process at the given interval (its descendants are not
// sampled).
func OptionSampleRSS(every time.Duration) Option {
	return func(o *Options) { o.SampleRSSEvery = every }
}

const defaultGracePeriod = 2 * time.Second

// Result carries a finished subprocess's observable outcome.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
	PeakRSS  uint64
	Signaled bool
}

var ErrProcessKilled = errors.New("proc: process group killed")

// RunProcess executes exe with args in its own process group, waits
// for completion or ctx cancellation, and on cancellation escalates
// from SIGINT to SIGTERM across the whole group so children started
// by the compiler driver (e.g. cc1, ld) are reaped too.
func RunProcess(ctx context.Context, exe string, args []string, opts ...Option) (*Result, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = defaultGracePeriod
	}

	cmd := exec.Command(exe, args...)
	cmd.Dir = o.WorkingDir
	if o.Environment != nil {
		cmd.Env = o.Environment
	}
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	if o.CaptureOutput {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		// a driver like gcc/cl.exe expects its diagnostics to reach the
		// invoking terminal, not /dev/null.
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("proc: start %s: %w", exe, err)
	}

	var monitor *rssMonitor
	if o.SampleRSSEvery > 0 {
		monitor = startRSSMonitor(cmd.Process.Pid, o.SampleRSSEvery)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var signaled bool
	var waitErr error
	select {
	case waitErr = <-done:
	case <-ctx.Done():
		signaled = true
		escalateKill(cmd, o.GracePeriod, done)
		waitErr = <-done
	}

	var peakRSS uint64
	if monitor != nil {
		peakRSS = monitor.stop()
	}

	result := &Result{
		Duration: time.Since(start),
		PeakRSS:  peakRSS,
		Signaled: signaled,
	}
	if o.CaptureOutput {
		result.Stdout = stdout.Bytes()
		result.Stderr = stderr.Bytes()
	}
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
	} else if waitErr != nil && !signaled {
		return result, fmt.Errorf("proc: wait %s: %w", exe, waitErr)
	}
	if signaled {
		return result, ErrProcessKilled
	}
	return result, nil
}
