package dayzlog

import "github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"

// compiledFilter holds pre-compiled filter configuration for efficient event
// filtering. It is created from the include/exclude options during watcher
// and collector initialization.
type compiledFilter struct {
	include map[event.Kind]struct{}
	exclude map[event.Kind]struct{}
}

// newCompiledFilter creates a new compiledFilter from include and exclude
// slices. Returns nil if both slices are empty (no filtering needed).
func newCompiledFilter(include, exclude []event.Kind) *compiledFilter {
	if len(include) == 0 && len(exclude) == 0 {
		return nil
	}

	f := &compiledFilter{}

	if len(include) > 0 {
		f.include = make(map[event.Kind]struct{}, len(include))
		for _, k := range include {
			f.include[k] = struct{}{}
		}
	}

	if len(exclude) > 0 {
		f.exclude = make(map[event.Kind]struct{}, len(exclude))
		for _, k := range exclude {
			f.exclude[k] = struct{}{}
		}
	}

	return f
}

// Allows returns true if the given event kind passes the filter.
// If include is non-empty, only kinds in include are allowed.
// Kinds in exclude are always rejected (exclude takes precedence).
func (f *compiledFilter) Allows(k event.Kind) bool {
	if f == nil {
		return true
	}

	if len(f.include) > 0 {
		if _, ok := f.include[k]; !ok {
			return false
		}
	}

	if len(f.exclude) > 0 {
		if _, ok := f.exclude[k]; ok {
			return false
		}
	}

	return true
}
