// Package plugin provides WebAssembly classifier plugins.
//
// A plugin is a wasm module exporting abi_version, alloc, free and
// classify_line. classify_line receives a JSON-encoded input with the raw
// log line and returns JSON-encoded classified lines (kind, player,
// time-of-day). Plugins extend the closed built-in recognizer set with
// site-specific log dialects without recompiling dayzlog.
package plugin

import (
	"errors"
	"fmt"
)

const (
	// ExpectedABIVersion is the plugin ABI version this host supports.
	ExpectedABIVersion = 1

	// MaxPluginFileSize caps the wasm file size (10MB).
	MaxPluginFileSize = 10 * 1024 * 1024

	// MaxOutputSize caps classify_line output (1MB) so a misbehaving
	// plugin cannot exhaust host memory.
	MaxOutputSize = 1 * 1024 * 1024

	// inputRegion is the fixed memory offset where the host writes the
	// input JSON. 64KB keeps clear of TinyGo's default heap base.
	inputRegion = 0x10000

	// inputRegionSize bounds a single input (8KB covers any log line).
	inputRegionSize = 8192
)

var (
	// ErrABIVersionMismatch indicates an incompatible plugin ABI version.
	ErrABIVersionMismatch = errors.New("abi version mismatch")

	// ErrTimeout indicates the plugin exceeded its execution timeout.
	ErrTimeout = errors.New("plugin timeout")

	// ErrFileTooLarge indicates the wasm file exceeds MaxPluginFileSize.
	ErrFileTooLarge = errors.New("wasm file too large")

	// ErrClosed indicates use of a plugin after Close.
	ErrClosed = errors.New("plugin is closed")
)

// ABIError reports a missing or misbehaving required export.
type ABIError struct {
	Function string
	Reason   string
}

func (e *ABIError) Error() string {
	return fmt.Sprintf("abi error in %s: %s", e.Function, e.Reason)
}

// CallError reports an error response returned by the plugin itself.
type CallError struct {
	Code    string
	Message string
}

func (e *CallError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("plugin error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("plugin error: %s", e.Message)
}

// RuntimeError wraps a wazero failure with the operation that hit it.
type RuntimeError struct {
	Operation string
	Err       error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("wasm runtime error during %s: %v", e.Operation, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }
