package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/dayzlog/dayzlog-go/internal/safefile"
)

// compiled bundles a wazero runtime with one AOT-compiled plugin module.
type compiled struct {
	runtime wazero.Runtime
	module  wazero.CompiledModule
	cache   wazero.CompilationCache
	hostFns *hostFunctions
}

// Close releases runtime resources in reverse order of creation. Safe to
// call multiple times.
func (c *compiled) Close(ctx context.Context) error {
	var firstErr error
	if c.cache != nil {
		if err := c.cache.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		c.cache = nil
	}
	if c.module != nil {
		if err := c.module.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		c.module = nil
	}
	if c.runtime != nil {
		if err := c.runtime.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		c.runtime = nil
	}
	return firstErr
}

// compileFile reads, validates and AOT-compiles a plugin wasm file.
func compileFile(ctx context.Context, path string, logger *slog.Logger) (*compiled, error) {
	f, info, err := safefile.OpenRegular(path)
	if err != nil {
		if errors.Is(err, safefile.ErrNotRegularFile) {
			return nil, fmt.Errorf("wasm path is not a regular file: %w", err)
		}
		return nil, fmt.Errorf("opening wasm file: %w", err)
	}
	defer f.Close()

	if info.Size() > MaxPluginFileSize {
		return nil, ErrFileTooLarge
	}
	wasmBytes, err := io.ReadAll(io.LimitReader(f, MaxPluginFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading wasm file: %w", err)
	}
	if int64(len(wasmBytes)) > MaxPluginFileSize {
		// File grew past the stat; reject rather than trust it.
		return nil, ErrFileTooLarge
	}

	rtConfig := wazero.NewRuntimeConfig().
		WithCloseOnContextDone(true) // context deadline enforces the call timeout

	var cache wazero.CompilationCache
	if dir, err := compilationCacheDir(); err == nil {
		if cache, err = wazero.NewCompilationCacheWithDir(dir); err == nil {
			rtConfig = rtConfig.WithCompilationCache(cache)
			if logger != nil {
				logger.Debug("using wasm compilation cache", "dir", dir)
			}
		} else if logger != nil {
			logger.Warn("wasm compilation cache unavailable", "error", err)
		}
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)

	cleanup := func() {
		cleanupCtx := context.Background()
		rt.Close(cleanupCtx)
		if cache != nil {
			cache.Close(cleanupCtx)
		}
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		cleanup()
		return nil, &RuntimeError{Operation: "wasi instantiation", Err: err}
	}

	hf := newHostFunctions(logger)
	envBuilder := rt.NewHostModuleBuilder("env")

	envBuilder = envBuilder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, strPtr, strLen, rePtr, reLen uint32) uint32 {
			return hf.regexMatch(ctx, m, strPtr, strLen, rePtr, reLen)
		}).
		Export("regex_match")

	envBuilder = envBuilder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, level, ptr, msgLen uint32) {
			hf.log(ctx, m, level, ptr, msgLen)
		}).
		Export("log")

	envBuilder = envBuilder.NewFunctionBuilder().
		WithFunc(func() int64 { return hf.nowMs() }).
		Export("now_ms")

	if _, err := envBuilder.Instantiate(ctx); err != nil {
		cleanup()
		return nil, &RuntimeError{Operation: "host functions registration", Err: err}
	}

	mod, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		cleanup()
		return nil, &RuntimeError{Operation: "wasm compilation", Err: err}
	}

	if err := validateExports(mod); err != nil {
		mod.Close(context.Background())
		cleanup()
		return nil, err
	}

	return &compiled{runtime: rt, module: mod, cache: cache, hostFns: hf}, nil
}

// validateExports checks the required ABI functions exist. Behavior is
// verified later by calling abi_version on a throwaway instance.
func validateExports(mod wazero.CompiledModule) error {
	exports := mod.ExportedFunctions()
	for _, name := range []string{"abi_version", "alloc", "free", "classify_line"} {
		if _, ok := exports[name]; !ok {
			return &ABIError{Function: name, Reason: "missing required export"}
		}
	}
	return nil
}

// compilationCacheDir returns the wazero AOT cache directory, following
// the XDG base directory convention.
func compilationCacheDir() (string, error) {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(cacheHome, "dayzlog", "wasm")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
