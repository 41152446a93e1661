package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dayzlog/dayzlog-go/internal/plugin"
	"github.com/dayzlog/dayzlog-go/pkg/dayzlog"
	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/pattern"
)

// buildClassifier builds a Classifier from pattern file paths and plugin
// file paths. Returns a nil classifier if neither is specified (the
// default classifier applies). The returned cleanup function releases
// plugin resources and is always non-nil, even on error.
func buildClassifier(ctx context.Context, patternFiles, pluginFiles []string, pluginTimeout time.Duration, logger *slog.Logger) (dayzlog.Classifier, func(), error) {
	noop := func() {}

	if len(patternFiles) == 0 && len(pluginFiles) == 0 {
		return nil, noop, nil
	}

	classifiers := []dayzlog.Classifier{dayzlog.DefaultClassifier{}}
	var cleanups []func()

	for i, path := range patternFiles {
		pc, err := pattern.NewClassifierFromFile(path)
		if err != nil {
			return nil, noop, fmt.Errorf("pattern file %d: %w", i+1, err)
		}
		classifiers = append(classifiers, pc)
	}

	for i, path := range pluginFiles {
		wp, err := plugin.Load(ctx, path, logger)
		if err != nil {
			for _, cleanup := range cleanups {
				cleanup()
			}
			return nil, noop, fmt.Errorf("plugin file %d: %w", i+1, err)
		}
		if pluginTimeout > 0 {
			wp.SetTimeout(pluginTimeout)
		}
		classifiers = append(classifiers, wp)
		cleanups = append(cleanups, func() { _ = wp.Close() })
	}

	cleanup := func() {
		for _, c := range cleanups {
			c()
		}
	}

	return &dayzlog.Chain{
		Mode:        dayzlog.ChainAll,
		Classifiers: classifiers,
	}, cleanup, nil
}
