/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package excNames is a catalogue of the JVM exception and error classes
// the core can raise, per §7 of the spec. Each constant is an index into
// JVMexceptionNames; the interpreter and classloader refer to exceptions
// by these indices rather than by fully-qualified string, so a thrown
// exception never requires a string compare to classify.
package excNames

const (
	Unknown = iota

	// ---- format / verification (§7 row 1) ----
	ClassFormatError
	ClassCircularityError
	IncompatibleClassChangeError
	LinkageError
	UnsupportedClassVersionError
	VerifyError

	// ---- resolution (§7 row 2) ----
	ClassNotFoundException
	NoClassDefFoundError
	NoSuchFieldError
	NoSuchMethodError
	IllegalAccessError
	AbstractMethodError
	ExceptionInInitializerError

	// ---- runtime checks (§7 row 3) ----
	NullPointerException
	ArrayIndexOutOfBoundsException
	StringIndexOutOfBoundsException
	IndexOutOfBoundsException
	ArrayStoreException
	ClassCastException
	ArithmeticException
	NegativeArraySizeException
	IllegalArgumentException
	IllegalStateException
	NumberFormatException
	UnsupportedOperationException
	PatternSyntaxException

	// ClassNotLoadedException flags a class found in the method area but
	// not yet past Link()/<clinit>, distinct from ClassNotFoundException's
	// "never located at all" condition.
	ClassNotLoadedException

	// ---- resource (§7 row 4) ----
	OutOfMemoryError
	StackOverflowError

	// ---- concurrency (§7 row 5) ----
	IllegalMonitorStateException
	InterruptedException

	// ---- fatal (§7 row 6) ----
	InternalError
	VirtualMachineError

	// IOException and friends, needed by native shims in gfunction
	IOException
	CloneNotSupportedException
)

// JVMexceptionNames maps the index constants above to the fully-qualified
// internal (slash-separated) class name the exception object is
// instantiated from.
var JVMexceptionNames = map[int]string{
	ClassFormatError:              "java/lang/ClassFormatError",
	ClassCircularityError:         "java/lang/ClassCircularityError",
	IncompatibleClassChangeError:  "java/lang/IncompatibleClassChangeError",
	LinkageError:                  "java/lang/LinkageError",
	UnsupportedClassVersionError:  "java/lang/UnsupportedClassVersionError",
	VerifyError:                   "java/lang/VerifyError",
	ClassNotFoundException:        "java/lang/ClassNotFoundException",
	NoClassDefFoundError:          "java/lang/NoClassDefFoundError",
	NoSuchFieldError:              "java/lang/NoSuchFieldError",
	NoSuchMethodError:             "java/lang/NoSuchMethodError",
	IllegalAccessError:            "java/lang/IllegalAccessError",
	AbstractMethodError:           "java/lang/AbstractMethodError",
	ExceptionInInitializerError:   "java/lang/ExceptionInInitializerError",
	NullPointerException:          "java/lang/NullPointerException",
	ArrayIndexOutOfBoundsException: "java/lang/ArrayIndexOutOfBoundsException",
	StringIndexOutOfBoundsException: "java/lang/StringIndexOutOfBoundsException",
	IndexOutOfBoundsException:     "java/lang/IndexOutOfBoundsException",
	ArrayStoreException:           "java/lang/ArrayStoreException",
	ClassCastException:            "java/lang/ClassCastException",
	ArithmeticException:           "java/lang/ArithmeticException",
	NegativeArraySizeException:    "java/lang/NegativeArraySizeException",
	IllegalArgumentException:      "java/lang/IllegalArgumentException",
	IllegalStateException:        "java/lang/IllegalStateException",
	NumberFormatException:        "java/lang/NumberFormatException",
	UnsupportedOperationException: "java/lang/UnsupportedOperationException",
	PatternSyntaxException:        "java/util/regex/PatternSyntaxException",
	ClassNotLoadedException:       "java/lang/ClassNotLoadedException",
	OutOfMemoryError:              "java/lang/OutOfMemoryError",
	StackOverflowError:            "java/lang/StackOverflowError",
	IllegalMonitorStateException:  "java/lang/IllegalMonitorStateException",
	InterruptedException:          "java/lang/InterruptedException",
	InternalError:                 "java/lang/InternalError",
	VirtualMachineError:           "java/lang/VirtualMachineError",
	IOException:                   "java/io/IOException",
	CloneNotSupportedException:    "java/lang/CloneNotSupportedException",
}

// JVMexceptionIndexFromName is the reverse of JVMexceptionNames, built once
// at init so resolveField/resolveMethod failures that only have a class
// name on hand (e.g. an exception table's catch_type) can classify quickly.
var JVMexceptionIndexFromName = func() map[string]int {
	m := make(map[string]int, len(JVMexceptionNames))
	for idx, name := range JVMexceptionNames {
		m[name] = idx
	}
	return m
}()
