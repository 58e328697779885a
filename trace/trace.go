/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package trace is the VM's ambient logging stack. It unifies what earlier
// jacobin commits split across a "log" package and a "trace" package into
// one: every severity level either name referred to lives here, so callers
// written against either era compile against the same API.
//
// The implementation is deliberately plain stdlib (log + fmt + os): this is
// a single foreground process writing short diagnostic lines to stderr,
// not a service that needs file rotation or structured sinks, so nothing
// in the examples corpus fits better than what the teacher already hand-rolls.
package trace

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// Severity levels, ordered least to most verbose once past the first two.
const (
	SEVERE = iota
	WARNING
	INFO
	CLASS      // class-loading trace messages (-Xverbose:class equivalent)
	FINE
	FINER
	TRACE_INST // per-bytecode interpreter trace, extremely verbose
	ALL
)

var levelNames = map[int]string{
	SEVERE:     "SEVERE",
	WARNING:    "WARNING",
	INFO:       "INFO",
	CLASS:      "CLASS",
	FINE:       "FINE",
	FINER:      "FINER",
	TRACE_INST: "TRACE",
	ALL:        "ALL",
}

var (
	level   int32 = WARNING
	mu      sync.Mutex
	initted bool
)

// Init resets the tracer to its default level. Tests call this to get a
// predictable starting state regardless of what ran before them.
func Init() {
	atomic.StoreInt32(&level, WARNING)
	mu.Lock()
	initted = true
	mu.Unlock()
}

// SetLogLevel changes the minimum severity that will be emitted. Lower
// numeric values are more severe and always pass the filter of a higher one
// -- that is, setting the level to FINE also emits SEVERE/WARNING/INFO/CLASS.
func SetLogLevel(lvl int) error {
	if _, ok := levelNames[lvl]; !ok {
		return fmt.Errorf("trace: invalid log level %d", lvl)
	}
	atomic.StoreInt32(&level, int32(lvl))
	return nil
}

// LogLevel returns the currently configured minimum severity.
func LogLevel() int { return int(atomic.LoadInt32(&level)) }

// Log emits msg if lvl is at or below the configured verbosity.
func Log(msg string, lvl int) error {
	if lvl > LogLevel() {
		return nil
	}
	name, ok := levelNames[lvl]
	if !ok {
		name = "UNKNOWN"
	}
	_, err := fmt.Fprintf(os.Stderr, "[%s] %s\n", name, msg)
	return err
}

// Trace is a convenience wrapper for informational messages -- the
// classloader and interpreter call this far more than Log directly.
func Trace(msg string) { _ = Log(msg, INFO) }

// Error always prints, regardless of the configured level: it is reserved
// for the "Fatal"/"Resolution" error rows of spec.md §7.
func Error(msg string) { _, _ = fmt.Fprintf(os.Stderr, "[SEVERE] %s\n", msg) }

// Warning is a convenience wrapper around the WARNING severity.
func Warning(msg string) { _ = Log(msg, WARNING) }
