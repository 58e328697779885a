/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"jacobin/globals"
)

// unset all of the JVM environment variables and make sure
// collecting them results in an empty string
func TestGetJVMenvVariablesWhenAbsent(t *testing.T) {
	os.Unsetenv("JAVA_TOOL_OPTIONS")
	os.Unsetenv("_JAVA_OPTIONS")
	os.Unsetenv("JDK_JAVA_OPTIONS")

	javaEnvVars := getEnvArgs()
	if javaEnvVars != "" {
		t.Error("getting non-existent Java environment options failed")
	}
}

// set two of the JVM environment variables and make sure
// they are fetched correctly and a space is inserted between them
func TestGetJVMenvVariablesWhenTwoArePresent(t *testing.T) {
	os.Unsetenv("JAVA_TOOL_OPTIONS")
	os.Setenv("_JAVA_OPTIONS", "Hello,")
	os.Setenv("JDK_JAVA_OPTIONS", "Jacobin!")

	javaEnvVars := getEnvArgs()
	if javaEnvVars != "Hello, Jacobin!" {
		t.Error("getting two set Java environment options failed: " + javaEnvVars)
	}

	os.Unsetenv("_JAVA_OPTIONS")
	os.Unsetenv("JDK_JAVA_OPTIONS")
}

// verify the output to stderr when only usage info is requested (i.e., jacobin --help)
func TestHandleUsageMessage(t *testing.T) {
	g := globals.InitGlobals(os.Args[0])

	normalStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	args := []string{"jacobin", "--help"}
	_, err := HandleCli(args, g)

	w.Close()
	os.Stderr = normalStderr
	out, _ := ioutil.ReadAll(r)

	if err != nil {
		t.Error("HandleCli returned an unexpected error: " + err.Error())
	}

	msg := string(out)
	if !strings.Contains(msg, "Usage:") || !strings.Contains(msg, "where options include") {
		t.Error("jacobin --help did not generate the usage message to stderr. msg was: " + msg)
	}

	if !g.ExitNow {
		t.Error("'jacobin --help' should have set ExitNow to true to signal end of processing")
	}
}

func TestHandleShowVersionMessage(t *testing.T) {
	g := globals.InitGlobals(os.Args[0])

	normalStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	args := []string{"jacobin", "--showversion"}
	_, err := HandleCli(args, g)

	w.Close()
	os.Stderr = normalStderr
	out, _ := ioutil.ReadAll(r)

	if err != nil {
		t.Error("HandleCli returned an unexpected error: " + err.Error())
	}

	msg := string(out)
	if !strings.Contains(msg, "Jacobin VM v.") {
		t.Error("jacobin --showversion did not generate the correct message to stderr. msg was: " + msg)
	}
}

func TestHandleClasspathAndMainClass(t *testing.T) {
	g := globals.InitGlobals(os.Args[0])

	args := []string{"jacobin", "--cp", "lib:classes", "Hello", "foo", "bar"}
	_, err := HandleCli(args, g)
	if err != nil {
		t.Fatal("HandleCli returned an unexpected error: " + err.Error())
	}

	if g.StartingClass != "Hello" {
		t.Error("expected starting class Hello, got " + g.StartingClass)
	}
	if len(g.AppArgs) != 2 || g.AppArgs[0] != "foo" || g.AppArgs[1] != "bar" {
		t.Errorf("expected app args [foo bar], got %v", g.AppArgs)
	}
	if len(g.Classpath) != 2 || g.Classpath[0] != "lib" || g.Classpath[1] != "classes" {
		t.Errorf("expected classpath [lib classes], got %v", g.Classpath)
	}
}

func TestHandleMaxHeapSize(t *testing.T) {
	g := globals.InitGlobals(os.Args[0])

	args := []string{"jacobin", "--Xmx", "512m", "Hello"}
	_, err := HandleCli(args, g)
	if err != nil {
		t.Fatal("HandleCli returned an unexpected error: " + err.Error())
	}

	want := int64(512 * 1024 * 1024)
	if g.MaxHeapSize != want {
		t.Errorf("expected max heap size %d, got %d", want, g.MaxHeapSize)
	}
}

func TestShowCopyright(t *testing.T) {
	normalStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	showCopyright()

	w.Close()
	os.Stdout = normalStdout
	out, _ := ioutil.ReadAll(r)

	msg := string(out)
	if !strings.Contains(msg, "All rights reserved.") {
		t.Error("copyright does not contain expected terms: " + msg)
	}
}
