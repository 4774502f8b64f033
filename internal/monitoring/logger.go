// Package monitoring holds the replaceable diagnostic logger shared by the
// evaluation pipeline and the command-line tools.
package monitoring

import (
	"log"
	"time"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf.
// Tests mute it with SetLogger(nil); commands may redirect it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Prefixed returns a logger that forwards to the current Logf with prefix
// prepended to every format string.
func Prefixed(prefix string) func(format string, v ...interface{}) {
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}

// Stage logs the start of a named pipeline stage and returns a function
// that logs its completion with the elapsed time.
func Stage(name string) func() {
	start := time.Now()
	Logf("%s: started", name)
	return func() {
		Logf("%s: finished in %s", name, time.Since(start).Round(time.Millisecond))
	}
}
