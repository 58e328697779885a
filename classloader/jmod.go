/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"jacobin/globals"
	"jacobin/trace"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// jmodMagic is the 4-byte header every .jmod file carries ("JM" followed
// by a format version) before its zip-format payload begins (JDK's own
// jmod tool, src/jdk.jlink/share/classes/jdk/tools/jmod).
var jmodMagic = []byte{'J', 'M', 1, 0}

var (
	jmodMapMutex sync.RWMutex
	jmodMap      = make(map[string]string) // class name -> jmod file path
	baseJmodPath string
	baseJmodData []byte
)

// JmodMapInit walks $JAVA_HOME/jmods and, for the base jmod, records every
// class name it contains so LoadClassFromNameOnly can find which jmod
// holds a given standard-library class. Every jmod, base or not, is read
// in full to list its class entries.
func JmodMapInit() {
	jmodMapMutex.Lock()
	defer jmodMapMutex.Unlock()
	jmodMap = make(map[string]string)

	global := globals.GetGlobalRef()
	jmodsDir := filepath.Join(global.JavaHome, "jmods")
	entries, err := os.ReadDir(jmodsDir)
	if err != nil {
		if globals.TraceClass {
			trace.Trace("JmodMapInit: cannot read jmods directory " + jmodsDir + ": " + err.Error())
		}
		return
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jmod") {
			continue
		}
		full := filepath.Join(jmodsDir, e.Name())
		if e.Name() == "java.base.jmod" {
			baseJmodPath = full
		}
		names, err := listJmodClasses(full)
		if err != nil {
			if globals.TraceClass {
				trace.Trace("JmodMapInit: skipping " + full + ": " + err.Error())
			}
			continue
		}
		for _, n := range names {
			jmodMap[n] = full
		}
	}
}

// JmodMapFetch returns the jmod file path that contains className, or ""
// if none is known (the caller then falls back to the local classpath).
func JmodMapFetch(className string) string {
	jmodMapMutex.RLock()
	defer jmodMapMutex.RUnlock()
	return jmodMap[className]
}

// GetBaseJmodBytes eagerly reads java.base.jmod into memory once, since
// LoadBaseClasses pulls the large majority of bootstrap classes from it.
func GetBaseJmodBytes() error {
	jmodMapMutex.Lock()
	defer jmodMapMutex.Unlock()
	if baseJmodData != nil || baseJmodPath == "" {
		return nil
	}
	data, err := os.ReadFile(baseJmodPath)
	if err != nil {
		return fmt.Errorf("GetBaseJmodBytes: %w", err)
	}
	baseJmodData = data
	return nil
}

// GetClassBytes extracts className's .class bytes from the named jmod
// file (jmod's internal layout stores classes under "classes/").
func GetClassBytes(jmodFileName string, className string) ([]byte, error) {
	entryName := "classes/" + className + ".class"

	var src []byte
	var err error
	if jmodFileName == baseJmodPath && baseJmodData != nil {
		src = baseJmodData
	} else {
		src, err = os.ReadFile(jmodFileName)
		if err != nil {
			return nil, fmt.Errorf("GetClassBytes: cannot read %s: %w", jmodFileName, err)
		}
	}

	zr, err := openJmodZip(src)
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if f.Name == entryName {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("GetClassBytes: %s not found in %s", className, jmodFileName)
}

// WalkBaseJmod loads every .class entry under classes/ in java.base.jmod
// into the bootstrap classloader. Mirrors LoadBaseClasses'
// historical directory walk, but reads jmod zip entries instead of
// loose .class files on disk.
func WalkBaseJmod() error {
	if err := GetBaseJmodBytes(); err != nil {
		return err
	}
	if baseJmodData == nil {
		// no JDK installed under JavaHome/jmods -- nothing to preload.
		// Not fatal: classes will be demand-loaded from the classpath.
		return nil
	}

	zr, err := openJmodZip(baseJmodData)
	if err != nil {
		return err
	}

	count := 0
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, "classes/") || !strings.HasSuffix(f.Name, ".class") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		className := strings.TrimSuffix(strings.TrimPrefix(f.Name, "classes/"), ".class")
		if MethAreaFetch(className) != nil {
			continue
		}
		_, _, err = loadClassFromBytes(BootstrapCL, className, raw)
		if err == nil {
			count++
		}
	}
	if globals.TraceCloadi {
		trace.Trace(fmt.Sprintf("WalkBaseJmod: loaded %d classes from java.base.jmod", count))
	}
	return nil
}

func listJmodClasses(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	zr, err := openJmodZip(data)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "classes/") && strings.HasSuffix(f.Name, ".class") {
			names = append(names, strings.TrimSuffix(strings.TrimPrefix(f.Name, "classes/"), ".class"))
		}
	}
	return names, nil
}

// openJmodZip skips the 4-byte jmod header (if present) and opens the
// remainder as a standard zip archive.
func openJmodZip(data []byte) (*zip.Reader, error) {
	body := data
	if len(data) >= 4 && bytes.Equal(data[:4], jmodMagic) {
		body = data[4:]
	}
	return zip.NewReader(bytes.NewReader(body), int64(len(body)))
}

// FetchUTF8stringFromCPEntryNumber resolves a CP index known to name a
// UTF8 entry into its string, for callers (the interpreter, gfunction
// glue) that only hold a ClData and a raw CP index.
func FetchUTF8stringFromCPEntryNumber(cp *CPool, cpIndex int) string {
	if cp == nil || cpIndex < 0 || cpIndex >= len(cp.CpIndex) {
		return ""
	}
	entry := cp.CpIndex[cpIndex]
	if entry.Type != UTF8 {
		return ""
	}
	if int(entry.Slot) >= len(cp.Utf8Refs) {
		return ""
	}
	return cp.Utf8Refs[entry.Slot]
}
