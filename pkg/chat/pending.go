package chat

import (
	"sync"
	"time"
)

// Defaults for the pending-response table.
const (
	DefaultPendingTTL    = 10 * time.Minute
	DefaultSweepInterval = time.Minute
)

// PendingResponses bridges the gap between "stream finished" and "client
// confirmed receipt": a completed streamed reply is staged here under its
// response id until a commit consumes it.
//
// Entries carry a TTL so replies the client abandons do not accumulate for
// the lifetime of the process; a background sweeper evicts expired entries.
// The table is guarded by a single lock; every critical section is an O(1)
// map operation, so contention stays negligible under many simultaneous
// streams.
type PendingResponses struct {
	mu      sync.Mutex
	entries map[string]pendingEntry

	ttl       time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

type pendingEntry struct {
	content  string
	stagedAt time.Time
}

// NewPendingResponses creates the table and starts its sweeper.
// Non-positive ttl or sweepInterval fall back to the defaults.
func NewPendingResponses(ttl, sweepInterval time.Duration) *PendingResponses {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	p := &PendingResponses{
		entries: make(map[string]pendingEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}

	go p.sweep(sweepInterval)

	return p
}

// Stage inserts or overwrites the entry for id. Called once per stream, at
// stream completion.
func (p *PendingResponses) Stage(id, content string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries[id] = pendingEntry{
		content:  content,
		stagedAt: time.Now(),
	}
}

// Commit atomically reads and removes the entry for id. There is no peek
// operation: a commit is the only way to observe an entry, enforcing single
// consumption. Returns UnknownResponseError if the id is absent or expired.
func (p *PendingResponses) Commit(id string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[id]
	if !ok {
		return "", UnknownResponseError{ID: id}
	}

	delete(p.entries, id)

	if time.Since(entry.stagedAt) > p.ttl {
		// Expired but not yet swept. Treat it as gone.
		return "", UnknownResponseError{ID: id}
	}

	return entry.content, nil
}

// Len returns the number of staged entries.
func (p *PendingResponses) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.entries)
}

// Close stops the sweeper. Staged entries are dropped with the process.
func (p *PendingResponses) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

// sweep evicts expired entries on a fixed interval until Close.
func (p *PendingResponses) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.evictExpired()
		}
	}
}

func (p *PendingResponses) evictExpired() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, entry := range p.entries {
		if time.Since(entry.stagedAt) > p.ttl {
			delete(p.entries, id)
		}
	}
}
