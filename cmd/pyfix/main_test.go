package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunCleanFileExitsZero(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "clean.py")
	if err := os.WriteFile(target, []byte("import os\n\nprint(os.name)\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out, errOut bytes.Buffer
	if code := run([]string{"check", target}, &out, &errOut); code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "no findings") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestRunFindingsExitOne(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "messy.py")
	if err := os.WriteFile(target, []byte("import sys, os\n\nos.getcwd()\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out, errOut bytes.Buffer
	if code := run([]string{"check", target}, &out, &errOut); code != 1 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "messy.py") {
		t.Fatalf("report missing file name: %q", out.String())
	}
}
