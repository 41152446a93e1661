package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tetratelabs/wazero/api"
	"golang.org/x/time/rate"
)

const (
	// maxLogMessageSize truncates plugin log messages (256 bytes).
	maxLogMessageSize = 256

	// logRateLimit caps plugin log calls per second.
	logRateLimit = 10

	// regexTimeout bounds one regex host-function call.
	regexTimeout = 5 * time.Millisecond
)

// hostFunctions backs the "env" module imported by plugins:
// regex_match, log and now_ms.
type hostFunctions struct {
	cache   *regexCache
	logger  *slog.Logger
	limiter *rate.Limiter
}

func newHostFunctions(logger *slog.Logger) *hostFunctions {
	return &hostFunctions{
		cache:   newRegexCache(defaultRegexCacheSize),
		logger:  logger,
		limiter: rate.NewLimiter(logRateLimit, logRateLimit),
	}
}

// regexMatch implements env.regex_match:
// (str_ptr, str_len, re_ptr, re_len) -> i32, 1 on match, 0 otherwise.
//
// Go's regexp cannot be cancelled mid-run; the timeout abandons the
// goroutine instead. RE2 guarantees linear time and patterns are length
// capped, so abandoned goroutines finish promptly.
func (h *hostFunctions) regexMatch(ctx context.Context, m api.Module, strPtr, strLen, rePtr, reLen uint32) uint32 {
	strBytes, ok := m.Memory().Read(strPtr, strLen)
	if !ok {
		return 0
	}
	reBytes, ok := m.Memory().Read(rePtr, reLen)
	if !ok {
		return 0
	}

	re, err := h.cache.Get(string(reBytes))
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("plugin regex compilation failed", "error", err)
		}
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, regexTimeout)
	defer cancel()

	resultCh := make(chan bool, 1)
	str := string(strBytes)
	go func() { resultCh <- re.MatchString(str) }()

	select {
	case matched := <-resultCh:
		if matched {
			return 1
		}
		return 0
	case <-ctx.Done():
		if h.logger != nil {
			h.logger.Warn("plugin regex match timeout", "str_len", len(str))
		}
		return 0
	}
}

// log implements env.log: (level, ptr, len). Levels: 0=debug, 1=info,
// 2=warn, 3=error. Rate limited; over-limit messages are dropped.
func (h *hostFunctions) log(_ context.Context, m api.Module, level, ptr, msgLen uint32) {
	if !h.limiter.Allow() {
		return
	}

	truncated := false
	if msgLen > maxLogMessageSize {
		truncated = true
		msgLen = maxLogMessageSize
	}

	msgBytes, ok := m.Memory().Read(ptr, msgLen)
	if !ok {
		return
	}

	msg := strings.ToValidUTF8(string(msgBytes), "�")
	if truncated {
		msg += " [truncated]"
	}

	if h.logger == nil {
		return
	}
	switch level {
	case 0:
		h.logger.Debug("[plugin] " + msg)
	case 1:
		h.logger.Info("[plugin] " + msg)
	case 2:
		h.logger.Warn("[plugin] " + msg)
	case 3:
		h.logger.Error("[plugin] " + msg)
	default:
		h.logger.Info(fmt.Sprintf("[plugin] (level=%d) %s", level, msg))
	}
}

// nowMs implements env.now_ms: () -> i64, Unix milliseconds.
func (h *hostFunctions) nowMs() int64 {
	return time.Now().UnixMilli()
}
