/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package util holds small free functions with no state and no dependency
// on any other jacobin package besides types, shared by classloader, jvm,
// and object.
package util

import (
	"path/filepath"
	"strings"
)

// ConvertToPlatformPathSeparators converts a class name in internal
// slash-separated form (e.g. "java/lang/String") to the host OS's path
// separator, so it can be joined onto a classpath directory and have
// ".class" appended.
func ConvertToPlatformPathSeparators(name string) string {
	return filepath.FromSlash(name)
}

// ConvertClassFilenameToInternalFormat reverses ConvertToPlatformPathSeparators,
// also stripping a trailing ".class" if present.
func ConvertClassFilenameToInternalFormat(filename string) string {
	name := filepath.ToSlash(filename)
	name = strings.TrimSuffix(name, ".class")
	return name
}

// ConvertInternalClassNameToUserFormat turns "java/lang/String" into
// "java.lang.String", the form used in exception messages and toString().
func ConvertInternalClassNameToUserFormat(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

// IsArrayDescriptor reports whether a type descriptor denotes an array.
func IsArrayDescriptor(descriptor string) bool {
	return strings.HasPrefix(descriptor, "[")
}

// ParamSlotsNeeded computes the number of JVM local-variable/operand-stack
// slots a method descriptor's parameter list occupies (longs and doubles
// count as two slots, everything else as one). Used by frame creation
// (§3 Frame) and by native-method wrappers for their pop count.
func ParamSlotsNeeded(descriptor string) int {
	slots := 0
	for _, w := range ParamSlotWidths(descriptor) {
		slots += w
	}
	return slots
}

// CountParams returns the number of parameters descriptor's parameter
// list declares, regardless of slot width -- one entry per argument
// value, which is what a caller populating an args slice (one element
// per value, long/double included) needs rather than ParamSlotsNeeded's
// real-JVM two-slot accounting.
func CountParams(descriptor string) int {
	return len(ParamSlotWidths(descriptor))
}

// ParamSlotWidths returns, in declaration order, the local-variable slot
// width (1 or 2) each of descriptor's parameters occupies.
func ParamSlotWidths(descriptor string) []int {
	var widths []int
	i := 1 // skip leading '('
	for i < len(descriptor) && descriptor[i] != ')' {
		switch descriptor[i] {
		case 'L':
			for i < len(descriptor) && descriptor[i] != ';' {
				i++
			}
			widths = append(widths, 1)
		case '[':
			for i < len(descriptor) && descriptor[i] == '[' {
				i++
			}
			if i < len(descriptor) && descriptor[i] == 'L' {
				for i < len(descriptor) && descriptor[i] != ';' {
					i++
				}
			}
			widths = append(widths, 1)
		case 'J', 'D':
			widths = append(widths, 2)
		default:
			widths = append(widths, 1)
		}
		i++
	}
	return widths
}
