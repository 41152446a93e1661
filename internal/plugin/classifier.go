package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tetratelabs/wazero"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog"
	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

// DefaultTimeout is the default classify_line execution timeout.
const DefaultTimeout = 50 * time.Millisecond

// Classifier runs a wasm plugin as a dayzlog.Classifier. It is
// goroutine-safe: every ClassifyLine call instantiates a fresh module.
type Classifier struct {
	compiled   *compiled
	timeout    atomic.Int64 // nanoseconds
	logger     *slog.Logger
	instanceNo atomic.Uint64 // unique module names for concurrent calls
}

// Load loads and validates a plugin from the given wasm file.
func Load(ctx context.Context, path string, logger *slog.Logger) (*Classifier, error) {
	cw, err := compileFile(ctx, path, logger)
	if err != nil {
		return nil, fmt.Errorf("loading wasm: %w", err)
	}

	// Validate the ABI version on a throwaway instance.
	mod, err := cw.runtime.InstantiateModule(ctx, cw.module, wazero.NewModuleConfig().WithName("plugin-init"))
	if err != nil {
		cw.Close(context.Background())
		return nil, &RuntimeError{Operation: "initial module instantiation", Err: err}
	}

	abiFn := mod.ExportedFunction("abi_version")
	if abiFn == nil {
		mod.Close(context.Background())
		cw.Close(context.Background())
		return nil, &ABIError{Function: "abi_version", Reason: "not exported"}
	}
	results, err := abiFn.Call(ctx)
	mod.Close(ctx)
	if err != nil {
		cw.Close(context.Background())
		return nil, &RuntimeError{Operation: "abi_version call", Err: err}
	}
	if len(results) == 0 {
		cw.Close(context.Background())
		return nil, &ABIError{Function: "abi_version", Reason: "no return value"}
	}
	if uint32(results[0]) != ExpectedABIVersion {
		cw.Close(context.Background())
		return nil, ErrABIVersionMismatch
	}

	c := &Classifier{compiled: cw, logger: logger}
	c.timeout.Store(int64(DefaultTimeout))
	return c, nil
}

// pluginInput is the JSON handed to classify_line.
type pluginInput struct {
	Line string `json:"line"`
}

// pluginLine is one classified line returned by the plugin.
type pluginLine struct {
	Kind       string            `json:"kind"`
	PlayerName string            `json:"player_name,omitempty"`
	SteamID    string            `json:"steam_id,omitempty"`
	Time       string            `json:"time"` // HH:MM:SS
	Data       map[string]string `json:"data,omitempty"`
}

// pluginOutput is the JSON returned by classify_line.
type pluginOutput struct {
	Ok    bool         `json:"ok"`
	Lines []pluginLine `json:"lines"`
	Error *string      `json:"error,omitempty"`
	Code  *string      `json:"code,omitempty"`
}

// ClassifyLine implements dayzlog.Classifier.
func (c *Classifier) ClassifyLine(ctx context.Context, line string) (dayzlog.Result, error) {
	if c.compiled == nil {
		return dayzlog.Result{}, ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.timeout.Load()))
	defer cancel()

	name := fmt.Sprintf("plugin-%d", c.instanceNo.Add(1))
	mod, err := c.compiled.runtime.InstantiateModule(ctx, c.compiled.module, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return dayzlog.Result{}, &RuntimeError{Operation: "module instantiation", Err: err}
	}
	defer mod.Close(context.Background())

	inputJSON, err := sonic.Marshal(pluginInput{Line: line})
	if err != nil {
		return dayzlog.Result{}, fmt.Errorf("marshaling input: %w", err)
	}
	if len(inputJSON) > inputRegionSize {
		return dayzlog.Result{}, fmt.Errorf("input too large: %d bytes (max %d)", len(inputJSON), inputRegionSize)
	}
	if required := uint32(inputRegion + len(inputJSON)); required > mod.Memory().Size() {
		return dayzlog.Result{}, fmt.Errorf("input region exceeds wasm memory size (%d > %d); plugin needs larger initial memory", required, mod.Memory().Size())
	}
	if !mod.Memory().Write(inputRegion, inputJSON) {
		return dayzlog.Result{}, errors.New("writing input to wasm memory")
	}

	classifyFn := mod.ExportedFunction("classify_line")
	if classifyFn == nil {
		return dayzlog.Result{}, &ABIError{Function: "classify_line", Reason: "not exported"}
	}
	results, err := classifyFn.Call(ctx, uint64(inputRegion), uint64(len(inputJSON)))
	if err != nil {
		if ctx.Err() != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return dayzlog.Result{}, ErrTimeout
			}
			return dayzlog.Result{}, ctx.Err()
		}
		return dayzlog.Result{}, &RuntimeError{Operation: "classify_line call", Err: err}
	}
	if len(results) == 0 {
		return dayzlog.Result{}, &ABIError{Function: "classify_line", Reason: "no return value"}
	}

	// Return value packs (out_len << 32) | out_ptr.
	packed := results[0]
	outPtr := uint32(packed & 0xFFFFFFFF)
	outLen := uint32(packed >> 32)
	if outLen > MaxOutputSize {
		return dayzlog.Result{}, fmt.Errorf("plugin output too large: %d bytes (max %d)", outLen, MaxOutputSize)
	}

	outView, ok := mod.Memory().Read(outPtr, outLen)
	if !ok {
		return dayzlog.Result{}, errors.New("reading output from wasm memory")
	}
	// Memory().Read returns a view into plugin memory; copy before free()
	// so the plugin cannot overwrite our data.
	outBytes := make([]byte, len(outView))
	copy(outBytes, outView)

	if freeFn := mod.ExportedFunction("free"); freeFn != nil {
		_, _ = freeFn.Call(ctx, uint64(outPtr), uint64(outLen))
	}

	var output pluginOutput
	if err := sonic.Unmarshal(outBytes, &output); err != nil {
		return dayzlog.Result{}, fmt.Errorf("unmarshaling output: %w", err)
	}

	if !output.Ok {
		callErr := &CallError{Message: "unknown error"}
		if output.Error != nil {
			callErr.Message = *output.Error
		}
		if output.Code != nil {
			callErr.Code = *output.Code
		}
		return dayzlog.Result{}, callErr
	}

	if len(output.Lines) == 0 {
		return dayzlog.Result{}, nil
	}

	lines := make([]event.ParsedLine, 0, len(output.Lines))
	for _, pl := range output.Lines {
		tod, err := event.ParseTimeOfDay(pl.Time)
		if err != nil {
			return dayzlog.Result{}, fmt.Errorf("plugin line time %q: %w", pl.Time, err)
		}
		lines = append(lines, event.ParsedLine{
			Kind:   event.Kind(pl.Kind),
			Player: event.Player{Name: pl.PlayerName, SteamID: pl.SteamID},
			Time:   tod,
			Raw:    line,
			Data:   pl.Data,
		})
	}
	return dayzlog.Result{Lines: lines, Matched: true}, nil
}

// SetTimeout overrides the classify_line execution timeout.
// Goroutine-safe.
func (c *Classifier) SetTimeout(timeout time.Duration) {
	c.timeout.Store(int64(timeout))
}

// Close releases the plugin's runtime resources. Implements io.Closer;
// safe to call multiple times.
func (c *Classifier) Close() error {
	if c.compiled == nil {
		return nil
	}
	err := c.compiled.Close(context.Background())
	c.compiled = nil
	return err
}
