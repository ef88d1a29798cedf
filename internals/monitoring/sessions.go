package monitoring

import (
	"log/slog"
	"runtime"
	"sync"
)

// SessionLimiter caps live sessions globally and per client IP
type SessionLimiter struct {
	mu       sync.Mutex
	perIP    map[string]int
	active   int
	maxTotal int
	maxPerIP int
	logger   *slog.Logger
	onChange func(active int)
}

// NewSessionLimiter allows maxTotal sessions overall and maxTotal/10 (at least 1) per IP
func NewSessionLimiter(maxTotal int, logger *slog.Logger, onChange func(active int)) *SessionLimiter {
	perIP := maxTotal / 10
	if perIP < 1 {
		perIP = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionLimiter{
		perIP:    make(map[string]int),
		maxTotal: maxTotal,
		maxPerIP: perIP,
		logger:   logger,
		onChange: onChange,
	}
}

// Acquire reserves a session slot for ip. It returns false when a limit is reached.
func (sl *SessionLimiter) Acquire(ip string) bool {
	sl.mu.Lock()
	if sl.active >= sl.maxTotal {
		sl.mu.Unlock()
		sl.logger.Warn("live session capacity reached", "active", sl.active, "max", sl.maxTotal)
		return false
	}
	if sl.perIP[ip] >= sl.maxPerIP {
		sl.mu.Unlock()
		sl.logger.Warn("too many live sessions from ip", "ip", ip, "max_per_ip", sl.maxPerIP)
		return false
	}
	sl.perIP[ip]++
	sl.active++
	active := sl.active
	sl.mu.Unlock()

	if sl.onChange != nil {
		sl.onChange(active)
	}
	return true
}

// Release frees a slot taken by Acquire
func (sl *SessionLimiter) Release(ip string) {
	sl.mu.Lock()
	if sl.perIP[ip] > 0 {
		sl.perIP[ip]--
		sl.active--
	}
	if sl.perIP[ip] <= 0 {
		delete(sl.perIP, ip)
	}
	active := sl.active
	sl.mu.Unlock()

	if sl.onChange != nil {
		sl.onChange(active)
	}
}

// Stats returns session and runtime figures for the health endpoint
func (sl *SessionLimiter) Stats() map[string]interface{} {
	sl.mu.Lock()
	active := sl.active
	sl.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"live_sessions":     active,
		"max_live_sessions": sl.maxTotal,
		"goroutines":        runtime.NumGoroutine(),
		"memory_alloc_mb":   m.Alloc / 1024 / 1024,
	}
}
