/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"jacobin/classloader"
	"jacobin/frames"
)

// quickRef is what a quickened get/putstatic, get/putfield, or invoke*
// instruction caches in its PreparedCode.Handlers slot, so every re-execution of
// that bytecode skips constant-pool decoding (classloader.GetMethInfoFromCPmethref
// / resolveFieldRef) entirely.
type quickRef struct {
	ClassName string
	Name      string
	Desc      string // field descriptor or method descriptor, depending on caller
}

// ensurePrepared lazily allocates f.Meth's PreparedCode the first time any
// instruction in it is quickened. A Frame belongs to exactly one thread for
// its entire lifetime (two threads calling the same method each get their
// own Frame off their own invoke), so installing a quickened reference
// needs no synchronization beyond ordinary sequential writes -- write the
// resolved reference, then mark the offset quickened; nothing else ever
// observes the slot until that flag is set.
func ensurePrepared(f *frames.Frame) *classloader.PreparedCode {
	if f.Prepared == nil {
		f.Prepared = &classloader.PreparedCode{
			Handlers:     make([]interface{}, len(f.Meth)),
			Operands:     make([]int64, len(f.Meth)),
			QuickenedOps: make([]bool, len(f.Meth)),
		}
	}
	return f.Prepared
}

// quicken installs ref at offset and marks it resolved.
func quicken(pc *classloader.PreparedCode, offset int, ref quickRef) {
	pc.Handlers[offset] = ref
	pc.QuickenedOps[offset] = true
}

// quickened reports whether offset has already been resolved, and returns
// the cached reference if so.
func quickened(pc *classloader.PreparedCode, offset int) (quickRef, bool) {
	if offset < 0 || offset >= len(pc.QuickenedOps) || !pc.QuickenedOps[offset] {
		return quickRef{}, false
	}
	ref, ok := pc.Handlers[offset].(quickRef)
	return ref, ok
}
