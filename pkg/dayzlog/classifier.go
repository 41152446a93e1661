package dayzlog

import (
	"context"
	"errors"

	"github.com/dayzlog/dayzlog-go/internal/classifier"
	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

// Result is the outcome of classifying one log line.
type Result struct {
	// Lines contains the classified lines. Usually zero or one, but a
	// classifier chain can yield several from a single raw line.
	Lines []event.ParsedLine

	// Matched indicates whether any classifier recognized the input.
	// It can be true with an empty Lines slice (a classifier that
	// matches but emits nothing).
	Matched bool
}

// Classifier is the interface for log line classifiers. Implementations
// include DefaultClassifier (the built-in recognizer set), the pattern
// package's regex classifiers, and wasm plugin classifiers.
type Classifier interface {
	// ClassifyLine classifies a single raw log line.
	// Returns Matched=false for unrecognized lines; errors are reserved
	// for unexpected failures, not noise.
	ClassifyLine(ctx context.Context, line string) (Result, error)
}

// ClassifierFunc adapts an ordinary function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, line string) (Result, error)

// ClassifyLine implements Classifier.
func (f ClassifierFunc) ClassifyLine(ctx context.Context, line string) (Result, error) {
	return f(ctx, line)
}

// DefaultClassifier is the built-in DayZ recognizer set: connect,
// state-machine kick, unstable-connection kick, disconnect, restart.
// It never returns an error.
type DefaultClassifier struct{}

// ClassifyLine implements Classifier.
func (DefaultClassifier) ClassifyLine(_ context.Context, line string) (Result, error) {
	pl, ok := classifier.Classify(line)
	if !ok {
		return Result{}, nil
	}
	return Result{Lines: []event.ParsedLine{pl}, Matched: true}, nil
}

// ChainMode specifies how a Chain runs its classifiers.
type ChainMode int

const (
	// ChainAll runs every classifier and combines results (default).
	ChainAll ChainMode = iota

	// ChainFirst stops at the first classifier that matches.
	ChainFirst

	// ChainContinueOnError skips classifiers that fail and joins their
	// errors at the end.
	ChainContinueOnError
)

// Chain combines multiple classifiers.
type Chain struct {
	Mode        ChainMode
	Classifiers []Classifier
}

// ClassifyLine implements Classifier.
//
// On context cancellation it returns immediately with partial results and
// the context error; callers should normally discard partial data when
// err != nil.
func (c *Chain) ClassifyLine(ctx context.Context, line string) (Result, error) {
	var all []event.ParsedLine
	var errs []error
	matched := false

	for _, cl := range c.Classifiers {
		if err := ctx.Err(); err != nil {
			return Result{Lines: all, Matched: matched}, err
		}
		if cl == nil {
			continue
		}

		res, err := cl.ClassifyLine(ctx, line)
		if err != nil {
			if c.Mode == ChainContinueOnError {
				errs = append(errs, err)
				continue
			}
			return Result{}, err
		}
		if res.Matched {
			matched = true
			all = append(all, res.Lines...)
			if c.Mode == ChainFirst {
				return Result{Lines: all, Matched: true}, nil
			}
		}
	}

	if len(errs) > 0 {
		return Result{Lines: all, Matched: matched}, errors.Join(errs...)
	}
	return Result{Lines: all, Matched: matched}, nil
}
