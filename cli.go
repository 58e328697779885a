/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"jacobin/globals"
)

// getEnvArgs concatenates the standard JVM environment-variable options
// (JAVA_TOOL_OPTIONS, _JAVA_OPTIONS, JDK_JAVA_OPTIONS), in the order the
// real launcher documents applying them, separated by a single space.
// An unset variable contributes nothing, not an extra separator.
func getEnvArgs() string {
	var parts []string
	for _, name := range []string{"JAVA_TOOL_OPTIONS", "_JAVA_OPTIONS", "JDK_JAVA_OPTIONS"} {
		if v := os.Getenv(name); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// splitClasspath divides a classpath string on the host's path-list
// separator (':' on Unix, ';' on Windows).
func splitClasspath(cp string) []string {
	return strings.Split(cp, string(os.PathListSeparator))
}

// parseMemSize parses a Java-style memory size (e.g. "512m", "2g", "1024k",
// or a bare byte count) into a byte count.
func parseMemSize(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	mult := int64(1)
	suffix := s[len(s)-1]
	digits := s
	switch suffix {
	case 'k', 'K':
		mult = 1024
		digits = s[:len(s)-1]
	case 'm', 'M':
		mult = 1024 * 1024
		digits = s[:len(s)-1]
	case 'g', 'G':
		mult = 1024 * 1024 * 1024
		digits = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n * mult, true
}

// showUsage writes the command's usage summary to stderr, the same
// destination the real `java` launcher uses for -help output.
func showUsage(fs *pflag.FlagSet) {
	fmt.Fprintln(os.Stderr, "Usage: jacobin [options] <class-or-jar> [args...]")
	fmt.Fprintln(os.Stderr, "where options include:")
	fmt.Fprintln(os.Stderr, fs.FlagUsages())
}

// showVersionInfo writes the VM's name and version to stderr.
func showVersionInfo(g *globals.Globals) {
	fmt.Fprintf(os.Stderr, "Jacobin VM v.%s\n", g.Version)
}

// showCopyright writes the one-line copyright banner every invocation
// without -quiet-equivalent flags should see before any other output.
func showCopyright() {
	fmt.Printf("Jacobin VM, Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.\n")
}

// HandleCli parses args (args[0] is the program name, matching os.Args)
// against the global FlagSet, applies the parsed options to g, and
// handles the two purely informational flags (-help, -showversion) by
// printing and setting g.ExitNow -- the caller is responsible for
// checking ExitNow before doing anything else.
func HandleCli(args []string, g *globals.Globals) ([]string, error) {
	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	opts := LoadOptionsTable(fs, g)

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	applyOptions(opts, g)

	if opts.help {
		showUsage(fs)
		return nil, nil
	}
	if opts.showVersion {
		showVersionInfo(g)
		return nil, nil
	}

	remaining := fs.Args()
	if len(remaining) > 0 {
		g.StartingClass = remaining[0]
		if strings.HasSuffix(remaining[0], ".jar") {
			g.StartingJar = remaining[0]
			g.StartingClass = ""
		}
		g.AppArgs = remaining[1:]
	}
	return remaining, nil
}
