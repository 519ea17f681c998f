// Package base collects the small ambient utilities shared by every
// gomacc package: logging, assertions, fingerprints, memoization and
// the compact binary archive format used by the output cache.
package base

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
)

// LogLevel orders verbosity from the quietest (LogError) to the
// noisiest (LogTrace). Higher levels include every lower one.
type LogLevel int32

const (
	LogError LogLevel = iota
	LogWarning
	LogInfo
	LogVerbose
	LogDebug
	LogTrace
)

func (l LogLevel) String() string {
	switch l {
	case LogError:
		return "ERROR"
	case LogWarning:
		return "WARNING"
	case LogInfo:
		return "INFO"
	case LogVerbose:
		return "VERBOSE"
	case LogDebug:
		return "DEBUG"
	case LogTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

// LogCategory groups log lines by subsystem, e.g. "parser" or
// "outputcache". Categories can be muted independently at runtime.
type LogCategory struct {
	Name   string
	muted  int32
	global *logger
}

func NewLogCategory(name string) *LogCategory {
	c := &LogCategory{Name: name, global: gLogger}
	gLogger.register(c)
	return c
}

func (c *LogCategory) IsMuted() bool { return atomic.LoadInt32(&c.muted) != 0 }
func (c *LogCategory) SetMuted(muted bool) {
	if muted {
		atomic.StoreInt32(&c.muted, 1)
	} else {
		atomic.StoreInt32(&c.muted, 0)
	}
}

type logger struct {
	mu         sync.Mutex
	out        *log.Logger
	level      int32
	categories []*LogCategory
}

var gLogger = newLogger()

func newLogger() *logger {
	return &logger{
		out:   log.New(os.Stderr, "", log.LstdFlags),
		level: int32(LogInfo),
	}
}

func (l *logger) register(c *LogCategory) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.categories = append(l.categories, c)
}

// SetLogLevel changes the global verbosity threshold. Messages logged
// above this level are dropped without formatting their arguments.
func SetLogLevel(level LogLevel) { atomic.StoreInt32(&gLogger.level, int32(level)) }

// SetLogOutput redirects every subsequent log line to w.
func SetLogOutput(w io.Writer) {
	gLogger.mu.Lock()
	defer gLogger.mu.Unlock()
	gLogger.out = log.New(w, "", log.LstdFlags)
}

func shouldLog(level LogLevel) bool {
	return int32(level) <= atomic.LoadInt32(&gLogger.level)
}

func logf(level LogLevel, cat *LogCategory, format string, args ...interface{}) {
	if !shouldLog(level) {
		return
	}
	if cat != nil && cat.IsMuted() {
		return
	}
	gLogger.mu.Lock()
	defer gLogger.mu.Unlock()
	name := "-"
	if cat != nil {
		name = cat.Name
	}
	gLogger.out.Printf("[%s] %-7s %s", name, level, fmt.Sprintf(format, args...))
}

func LogError(cat *LogCategory, format string, args ...interface{})   { logf(LogError, cat, format, args...) }
func LogWarning(cat *LogCategory, format string, args ...interface{}) { logf(LogWarning, cat, format, args...) }
func LogInfo(cat *LogCategory, format string, args ...interface{})    { logf(LogInfo, cat, format, args...) }
func LogVerbose(cat *LogCategory, format string, args ...interface{}) { logf(LogVerbose, cat, format, args...) }
func LogDebug(cat *LogCategory, format string, args ...interface{})   { logf(LogDebug, cat, format, args...) }
func LogTrace(cat *LogCategory, format string, args ...interface{})   { logf(LogTrace, cat, format, args...) }

// LogPanic logs an error line then panics with the same message, for
// invariant violations that must stop the current goroutine.
func LogPanic(cat *LogCategory, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logf(LogError, cat, "%s", msg)
	panic(msg)
}
