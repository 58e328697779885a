/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"github.com/spf13/pflag"

	"jacobin/globals"
)

// cliOptions holds every flag value pflag parses on a run, before it's
// folded into the process-wide globals.Globals. Keeping pflag's own Var
// pointers separate from Globals means a flag default never silently
// depends on whatever InitGlobals happened to set first.
type cliOptions struct {
	help        bool
	showVersion bool
	verboseOpt  string
	classpath   string
	maxHeap     string
	threadStack string
	strictJDK   bool
	diagTUI     bool
}

// LoadOptionsTable registers every flag jacobin accepts on its FlagSet,
// mirroring the subset of the real `java` launcher's options this VM
// implements (spec.md §9's "Command line" scope): classpath, initial
// trace verbosity, heap/stack sizing, and the help/version informational
// flags. g is threaded through only so tests can call this against a
// freshly initialized Globals without relying on the package singleton.
func LoadOptionsTable(fs *pflag.FlagSet, g *globals.Globals) *cliOptions {
	opts := &cliOptions{}

	fs.BoolVarP(&opts.help, "help", "h", false, "print this help message and exit")
	fs.BoolVar(&opts.showVersion, "showversion", false, "print version information and exit")
	fs.StringVar(&opts.classpath, "cp", "", "application classpath, colon/semicolon separated")
	fs.StringVar(&opts.classpath, "classpath", "", "alias for --cp")
	fs.StringVar(&opts.maxHeap, "Xmx", "", "maximum heap size, e.g. 512m or 2g")
	fs.StringVar(&opts.threadStack, "Xss", "", "thread stack size, e.g. 1m")
	fs.StringVar(&opts.verboseOpt, "verbose", "", "trace verbosity: class, inst, or all")
	fs.BoolVar(&opts.strictJDK, "strictJDK", false, "reject behavior this VM normally tolerates but the JDK does not")
	fs.BoolVar(&opts.diagTUI, "diag", false, "run a live heap/GC/thread dashboard alongside the VM")

	_ = g
	return opts
}

// applyOptions folds a parsed cliOptions into g, converting the handful
// of options that need unit parsing or trace-switch fan-out.
func applyOptions(opts *cliOptions, g *globals.Globals) {
	g.ExitNow = opts.help || opts.showVersion
	g.StrictJDK = opts.strictJDK
	g.DiagTUI = opts.diagTUI

	if opts.classpath != "" {
		g.Classpath = splitClasspath(opts.classpath)
	}
	if opts.maxHeap != "" {
		if n, ok := parseMemSize(opts.maxHeap); ok {
			g.MaxHeapSize = n
		}
	}
	if opts.threadStack != "" {
		if n, ok := parseMemSize(opts.threadStack); ok {
			g.ThreadStackSize = n
		}
	}

	switch opts.verboseOpt {
	case "class":
		g.SetTraceClass(true)
	case "inst":
		g.TraceInst = true
	case "all":
		g.SetTraceClass(true)
		g.TraceInst = true
		g.TraceVerbose = true
	}
}
