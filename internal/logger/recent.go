package logger

import (
	"sync"

	"github.com/goccy/go-json"
)

const defaultRecentSize = 500

// Entry is one parsed log line kept for the status API.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Recent is an io.Writer that keeps the last N zerolog JSON entries in a
// fixed-size ring.
type Recent struct {
	mu      sync.RWMutex
	entries []Entry
	head    int
	count   int
}

// NewRecent creates a ring holding up to size entries.
func NewRecent(size int) *Recent {
	if size <= 0 {
		size = defaultRecentSize
	}
	return &Recent{entries: make([]Entry, size)}
}

// Write implements io.Writer. Malformed lines are dropped.
func (r *Recent) Write(p []byte) (int, error) {
	entry, err := parseEntry(p)
	if err != nil {
		return len(p), nil //nolint:nilerr // malformed lines are not worth failing the log call
	}

	r.mu.Lock()
	r.entries[(r.head+r.count)%len(r.entries)] = entry
	if r.count < len(r.entries) {
		r.count++
	} else {
		r.head = (r.head + 1) % len(r.entries)
	}
	r.mu.Unlock()

	return len(p), nil
}

// Entries returns buffered entries oldest first.
func (r *Recent) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.entries[(r.head+i)%len(r.entries)]
	}
	return out
}

// Len returns the number of buffered entries.
func (r *Recent) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

func parseEntry(data []byte) (Entry, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Entry{}, err
	}

	entry := Entry{}
	if ts, ok := raw["time"].(string); ok {
		entry.Timestamp = ts
		delete(raw, "time")
	}
	if level, ok := raw["level"].(string); ok {
		entry.Level = level
		delete(raw, "level")
	}
	if component, ok := raw["component"].(string); ok {
		entry.Component = component
		delete(raw, "component")
	}
	if msg, ok := raw["message"].(string); ok {
		entry.Message = msg
		delete(raw, "message")
	}
	if len(raw) > 0 {
		entry.Fields = raw
	}

	return entry, nil
}
