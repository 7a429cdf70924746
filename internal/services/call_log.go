package services

import (
	"sync"
	"time"
)

const defaultCallLogSize = 100

// GenerationCall is one attempt against the generation service, kept for the admin view.
type GenerationCall struct {
	ID           string        `json:"id"`
	Timestamp    time.Time     `json:"timestamp"`
	Model        string        `json:"model"`
	CallType     string        `json:"callType"` // "expert_answer", "safety_guidance"
	Attempt      int           `json:"attempt"`
	PromptLength int           `json:"promptLength"`
	Status       int           `json:"status"`
	Duration     time.Duration `json:"-"`
	DurationMs   int64         `json:"durationMs"`
	Response     string        `json:"response,omitempty"`
	Error        string        `json:"error,omitempty"`
	Retryable    bool          `json:"retryable"`
}

// CallLog keeps the most recent generation calls in memory.
type CallLog struct {
	mu    sync.RWMutex
	calls []GenerationCall
	limit int
}

func NewCallLog(limit int) *CallLog {
	if limit <= 0 {
		limit = defaultCallLogSize
	}
	return &CallLog{
		calls: make([]GenerationCall, 0, limit),
		limit: limit,
	}
}

// Add records a call, dropping the oldest once the log is full.
func (l *CallLog) Add(call GenerationCall) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.calls) >= l.limit {
		l.calls = l.calls[1:]
	}
	l.calls = append(l.calls, call)
}

// List returns a copy of the recorded calls, oldest first.
func (l *CallLog) List() []GenerationCall {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	calls := make([]GenerationCall, len(l.calls))
	copy(calls, l.calls)
	return calls
}

func (l *CallLog) Clear() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = make([]GenerationCall, 0, l.limit)
}

func (l *CallLog) Len() int {
	if l == nil {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.calls)
}
