package logger

import (
	"sync"
)

// named holds loggers registered per component.
var named = struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
}{loggers: make(map[string]*Logger)}

// Register stores a named logger.
func Register(name string, l *Logger) {
	named.mu.Lock()
	defer named.mu.Unlock()
	named.loggers[name] = l
}

// Get retrieves a named logger. Unregistered names fall back to the global
// logger tagged with the requested component name.
func Get(name string) *Logger {
	named.mu.RLock()
	l, ok := named.loggers[name]
	named.mu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// Unregister drops a named logger so Get falls back to the global one again.
func Unregister(name string) {
	named.mu.Lock()
	defer named.mu.Unlock()
	delete(named.loggers, name)
}
