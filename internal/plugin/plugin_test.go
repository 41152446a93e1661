package plugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewHostFunctions(t *testing.T) {
	hf := newHostFunctions(nil)
	if hf.cache == nil {
		t.Error("cache not initialized")
	}
	if hf.limiter == nil {
		t.Error("limiter not initialized")
	}
	if hf.logger != nil {
		t.Error("logger should stay nil when none given")
	}
}

func TestABIErrorMessage(t *testing.T) {
	err := &ABIError{Function: "classify_line", Reason: "not exported"}
	want := "abi error in classify_line: not exported"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCallErrorMessage(t *testing.T) {
	withCode := &CallError{Code: "E_PARSE", Message: "bad input"}
	if got, want := withCode.Error(), "plugin error E_PARSE: bad input"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	noCode := &CallError{Message: "bad input"}
	if got, want := noCode.Error(), "plugin error: bad input"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestRuntimeErrorUnwrap(t *testing.T) {
	cause := errors.New("trap")
	err := &RuntimeError{Operation: "classify_line call", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should expose the cause")
	}
	if got := err.Error(); got != "wasm runtime error during classify_line call: trap" {
		t.Errorf("Error() = %q", got)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.wasm"), nil)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadDirectory(t *testing.T) {
	_, err := Load(context.Background(), t.TempDir(), nil)
	if err == nil {
		t.Fatal("expected error for directory path")
	}
}

func TestLoadFileTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.wasm")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	// Sparse file; the size check runs before any read.
	if err := f.Truncate(MaxPluginFileSize + 1); err != nil {
		f.Close()
		t.Skipf("cannot create sparse file: %v", err)
	}
	f.Close()

	_, err = Load(context.Background(), path, nil)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}
}

func TestLoadInvalidWasm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.wasm")
	if err := os.WriteFile(path, []byte("not a wasm module"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(context.Background(), path, nil)
	if err == nil {
		t.Fatal("expected error for invalid wasm bytes")
	}
}

func TestClassifierClosed(t *testing.T) {
	c := &Classifier{}
	if _, err := c.ClassifyLine(context.Background(), "19:22:10 | anything"); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}
