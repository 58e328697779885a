/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"jacobin/stringPool"
	"math"
)

func float32FromBits(v uint32) float32 {
	return math.Float32frombits(v)
}

func float64FromBits(v uint64) float64 {
	return math.Float64frombits(v)
}

// stringPoolIntern is the parser's sole touch point into the interned
// symbol table, used for class/super/interface names (spec.md §3
// "StringPool... every class and interface name is interned once").
func stringPoolIntern(s string) uint32 {
	return stringPool.GetStringIndex(s)
}
