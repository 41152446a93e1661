package plugin

import (
	"container/list"
	"fmt"
	"regexp"
	"sync"
)

const (
	// defaultRegexCacheSize bounds the number of cached compiled patterns.
	defaultRegexCacheSize = 100

	// maxHostPatternLength bounds patterns passed to the regex host
	// function (ReDoS mitigation; RE2 is linear but compilation is not free).
	maxHostPatternLength = 512
)

// regexCache is a thread-safe LRU cache of compiled regular expressions,
// shared by all instances of a plugin.
type regexCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	maxSize int
}

type regexEntry struct {
	pattern string
	re      *regexp.Regexp
}

func newRegexCache(maxSize int) *regexCache {
	return &regexCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
	}
}

// Get returns the compiled pattern, compiling and caching it on a miss.
func (c *regexCache) Get(pattern string) (*regexp.Regexp, error) {
	if len(pattern) > maxHostPatternLength {
		return nil, fmt.Errorf("pattern exceeds maximum length of %d bytes", maxHostPatternLength)
	}

	c.mu.Lock()
	if elem, ok := c.entries[pattern]; ok {
		c.order.MoveToFront(elem)
		re := elem.Value.(*regexEntry).re
		c.mu.Unlock()
		return re, nil
	}
	c.mu.Unlock()

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have compiled it meanwhile.
	if elem, ok := c.entries[pattern]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*regexEntry).re, nil
	}

	if c.order.Len() >= c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*regexEntry).pattern)
		}
	}
	c.entries[pattern] = c.order.PushFront(&regexEntry{pattern: pattern, re: re})
	return re, nil
}

// Len returns the number of cached patterns.
func (c *regexCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
