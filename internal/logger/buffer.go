// internal/logger/buffer.go
package logger

import (
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// DefaultBufferSize is the number of recent entries kept for the dashboard.
const DefaultBufferSize = 200

// LogEntry is one decoded log line held in a LogBuffer.
type LogEntry struct {
	Timestamp time.Time
	Level     string
	Logger    string
	Message   string
}

// LogBuffer is a fixed-size ring of the most recent log entries. It is a
// zapcore.WriteSyncer fed by a JSON core, one entry per Write.
type LogBuffer struct {
	mu      sync.Mutex
	ring    []LogEntry
	next    int
	wrapped bool
	total   uint64
	dropped uint64
}

func NewLogBuffer(size int) *LogBuffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &LogBuffer{ring: make([]LogEntry, size)}
}

type jsonEntry struct {
	TS     float64 `json:"ts"`
	Level  string  `json:"level"`
	Logger string  `json:"logger"`
	Msg    string  `json:"msg"`
}

// Write decodes a JSON-encoded entry and stores it. Lines that fail to
// decode are counted and skipped so logging never fails because of the tail.
func (lb *LogBuffer) Write(p []byte) (int, error) {
	var raw jsonEntry
	if err := jsoniter.ConfigFastest.Unmarshal(p, &raw); err != nil {
		lb.mu.Lock()
		lb.dropped++
		lb.mu.Unlock()
		return len(p), nil
	}

	sec := int64(raw.TS)
	nsec := int64((raw.TS - float64(sec)) * float64(time.Second))
	entry := LogEntry{
		Timestamp: time.Unix(sec, nsec),
		Level:     raw.Level,
		Logger:    raw.Logger,
		Message:   raw.Msg,
	}

	lb.mu.Lock()
	lb.ring[lb.next] = entry
	lb.next = (lb.next + 1) % len(lb.ring)
	if lb.next == 0 {
		lb.wrapped = true
	}
	lb.total++
	lb.mu.Unlock()

	return len(p), nil
}

func (lb *LogBuffer) Sync() error { return nil }

// GetRecentLogs returns up to limit entries, oldest first. limit <= 0 means
// everything buffered.
func (lb *LogBuffer) GetRecentLogs(limit int) []LogEntry {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	count := lb.next
	start := 0
	if lb.wrapped {
		count = len(lb.ring)
		start = lb.next
	}
	if limit > 0 && limit < count {
		start += count - limit
		count = limit
	}

	out := make([]LogEntry, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, lb.ring[(start+i)%len(lb.ring)])
	}
	return out
}

// GetStats returns how many entries were accepted and how many were undecodable.
func (lb *LogBuffer) GetStats() (total, dropped uint64) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.total, lb.dropped
}
