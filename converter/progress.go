package converter

import (
	"sync"
	"time"
)

// Progress tracks a whole-meeting conversion.
type Progress struct {
	mu sync.RWMutex

	TotalSessions  int
	ProcessedCount int
	ConvertedCount int
	FailedCount    int

	CurrentGroup   string
	CurrentSession string
	Status         string

	StartedAt time.Time
	UpdatedAt time.Time

	onUpdate func(*Progress)
}

// NewProgress creates a new progress tracker.
func NewProgress(totalSessions int) *Progress {
	return &Progress{
		TotalSessions: totalSessions,
		Status:        "pending",
		StartedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

// SetOnUpdate sets a callback function called on each update.
func (p *Progress) SetOnUpdate(fn func(*Progress)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onUpdate = fn
}

func (p *Progress) reset(totalSessions int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TotalSessions = totalSessions
	p.ProcessedCount = 0
	p.ConvertedCount = 0
	p.FailedCount = 0
	p.Status = "pending"
}

// Start marks the progress as started.
func (p *Progress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = "running"
	p.StartedAt = time.Now()
	p.UpdatedAt = time.Now()
	p.notifyUpdate()
}

// SetCurrentSession updates the session being converted.
func (p *Progress) SetCurrentSession(group, sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CurrentGroup = group
	p.CurrentSession = sessionID
	p.UpdatedAt = time.Now()
	p.notifyUpdate()
}

// RecordConverted increments the converted and processed counts.
func (p *Progress) RecordConverted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ConvertedCount++
	p.ProcessedCount++
	p.UpdatedAt = time.Now()
	p.notifyUpdate()
}

// RecordFailed increments the failed and processed counts.
func (p *Progress) RecordFailed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.FailedCount++
	p.ProcessedCount++
	p.UpdatedAt = time.Now()
	p.notifyUpdate()
}

// Complete marks the progress as completed.
func (p *Progress) Complete(success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if success {
		p.Status = "completed"
	} else {
		p.Status = "failed"
	}
	p.UpdatedAt = time.Now()
	p.notifyUpdate()
}

// Snapshot returns a copy of the current counters.
func (p *Progress) Snapshot() (processed, converted, failed, total int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ProcessedCount, p.ConvertedCount, p.FailedCount, p.TotalSessions
}

// notifyUpdate invokes the callback. Caller must hold p.mu.
func (p *Progress) notifyUpdate() {
	if p.onUpdate != nil {
		p.onUpdate(p)
	}
}
