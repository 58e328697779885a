/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"container/list"
	"fmt"

	"jacobin/classloader"
	"jacobin/frames"
	"jacobin/trace"
	"jacobin/types"
)

// runInitializationBlock runs k's <clinit> -- the static initializer block
// the compiler gathers every class's static field initializers and static
// blocks into -- along with every not-yet-run <clinit> in its superclass
// chain, bottom-most superclass first, so a subclass's static initializers
// never observe a superclass's static state half set up.
//
// superClasses is nil on the initial call; the function then walks the
// superclass chain itself (loading any not-yet-resident superclass along
// the way), collecting k followed by each superclass whose <clinit> has
// not run, and executes that list from its last element back to k. A
// non-empty superClasses is executed the same way without the walk.
func runInitializationBlock(k *classloader.Klass, superClasses []string, fs *list.List) error {
	if len(superClasses) == 0 {
		k.Data.ClInit = types.ClInitInProgress

		var chain []string
		chain = append(chain, k.Data.Name)

		superclass := k.Data.Superclass
		for superclass != "" && superclass != "java/lang/Object" {
			if err := loadThisClass(superclass); err != nil {
				return err
			}
			loaded := classloader.MethAreaFetch(superclass)
			if loaded == nil || loaded.Data == nil {
				break
			}
			if loaded.Data.ClInit == types.ClInitNotRun {
				chain = append(chain, superclass)
			}
			superclass = loaded.Data.Superclass
		}
		superClasses = chain
	}

	for i := len(superClasses) - 1; i >= 0; i-- {
		className := superClasses[i]
		jme, ok := classloader.MTableFetch(className + ".<clinit>()V")
		if !ok {
			continue // no <clinit> in this class, nothing to run
		}
		var err error
		switch jme.MType {
		case classloader.MTypeBytecode:
			err = runJavaInitializer(jme, className, fs)
		case classloader.MTypeNative:
			_, err = runGmethod(jme, nil)
		}
		if err != nil {
			return err
		}
		if k2 := classloader.MethAreaFetch(className); k2 != nil && k2.Data != nil {
			k2.Data.ClInit = types.ClInitRun
		}
	}
	return nil
}

// runJavaInitializer builds a frame for a <clinit> method the same way
// invoke.go's runBytecodeMethod builds one for an ordinary method, and
// runs it to completion on fs before returning.
func runJavaInitializer(jme classloader.JmEntry, className string, fs *list.List) error {
	k := classloader.MethAreaFetch(className)
	if k == nil || k.Data == nil {
		return classloader.CFE("runJavaInitializer: class " + className + " not present in method area")
	}

	f := frames.CreateFrame(jme.MaxStack + 2)
	f.ClName = className
	f.MethName = "<clinit>"
	f.MethType = "()V"
	f.CP = &k.Data.CP
	f.Meth = jme.Code
	f.ExceptionTable = jme.CodeAttr.Exceptions
	f.Locals = make([]interface{}, jme.MaxLocals)

	k.Data.ClInit = types.ClInitInProgress

	if err := frames.PushFrame(fs, f); err != nil {
		return err
	}

	if MainThread.Trace {
		trace.Trace(fmt.Sprintf("Start <clinit>: class=%s, maxStack=%d, maxLocals=%d, code size=%d",
			className, jme.MaxStack, jme.MaxLocals, len(jme.Code)))
	}

	_, err := runFrame(fs)
	return err
}
