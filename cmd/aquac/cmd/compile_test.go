package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aquascript/aqua/internal/bytecode"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stderr = w
	fn()
	w.Close()
	os.Stderr = old
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestRunCompileWritesAcodeFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.aqua")
	if err := os.WriteFile(src, []byte("print(1 + 2)\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	oldOutput, oldDisasm, oldVerbose := outputFile, disassemble, verbose
	defer func() { outputFile, disassemble, verbose = oldOutput, oldDisasm, oldVerbose }()
	outputFile, disassemble, verbose = "", false, false

	var runErr error
	out := captureStdout(t, func() {
		runErr = runCompile(nil, []string{src})
	})
	if runErr != nil {
		t.Fatalf("runCompile failed: %v\noutput: %s", runErr, out)
	}

	acode := strings.TrimSuffix(src, ".aqua") + ".acode"
	data, err := os.ReadFile(acode)
	if err != nil {
		t.Fatalf("expected %s to be written: %v", acode, err)
	}
	if _, err := bytecode.Deserialize(data); err != nil {
		t.Fatalf("expected a valid bytecode container, got: %v", err)
	}
	if !strings.Contains(out, "Compiled") {
		t.Errorf("expected a compiled-confirmation message, got: %s", out)
	}
}

func TestRunCompileHonorsOutputFlag(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.aqua")
	if err := os.WriteFile(src, []byte("print(1)\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(dir, "custom.acode")

	oldOutput, oldDisasm, oldVerbose := outputFile, disassemble, verbose
	defer func() { outputFile, disassemble, verbose = oldOutput, oldDisasm, oldVerbose }()
	outputFile, disassemble, verbose = dest, false, false

	captureStdout(t, func() {
		if err := runCompile(nil, []string{src}); err != nil {
			t.Fatal(err)
		}
	})

	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected output at custom path %s: %v", dest, err)
	}
}

func TestRunCompileReportsParseErrors(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.aqua")
	if err := os.WriteFile(src, []byte("var x = )\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	oldOutput, oldDisasm, oldVerbose := outputFile, disassemble, verbose
	defer func() { outputFile, disassemble, verbose = oldOutput, oldDisasm, oldVerbose }()
	outputFile, disassemble, verbose = "", false, false

	var runErr error
	stderr := captureStderr(t, func() {
		runErr = runCompile(nil, []string{src})
	})
	if runErr == nil {
		t.Fatal("expected a parse error for malformed source")
	}
	if !strings.Contains(stderr, "bad.aqua") {
		t.Errorf("expected the diagnostic to reference the file, got: %s", stderr)
	}
}

func TestRunCompileWithDisassembleFlagPrintsListing(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.aqua")
	if err := os.WriteFile(src, []byte("print(1)\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	oldOutput, oldDisasm, oldVerbose := outputFile, disassemble, verbose
	defer func() { outputFile, disassemble, verbose = oldOutput, oldDisasm, oldVerbose }()
	outputFile, disassemble, verbose = "", true, false

	stderr := captureStderr(t, func() {
		captureStdout(t, func() {
			if err := runCompile(nil, []string{src}); err != nil {
				t.Fatal(err)
			}
		})
	})
	if !strings.Contains(stderr, "main:") {
		t.Errorf("expected a disassembly listing on stderr, got: %s", stderr)
	}
}

func TestRunDisasmRoundTripsACompiledFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.aqua")
	if err := os.WriteFile(src, []byte("print(1)\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	oldOutput, oldDisasm, oldVerbose := outputFile, disassemble, verbose
	defer func() { outputFile, disassemble, verbose = oldOutput, oldDisasm, oldVerbose }()
	outputFile, disassemble, verbose = "", false, false

	captureStdout(t, func() {
		if err := runCompile(nil, []string{src}); err != nil {
			t.Fatal(err)
		}
	})

	acode := strings.TrimSuffix(src, ".aqua") + ".acode"
	out := captureStdout(t, func() {
		if err := runDisasm(nil, []string{acode}); err != nil {
			t.Fatal(err)
		}
	})
	if !strings.Contains(out, "main:") {
		t.Errorf("expected a main: header in the disassembly, got: %s", out)
	}
}
