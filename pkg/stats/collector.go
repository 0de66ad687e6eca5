// Package stats provides centralized operation counters with minimal
// contention, using atomic values for thread safety.
package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// OperationType defines the type of operation being tracked.
type OperationType string

// Operation types tracked across the library.
const (
	OpIterate  OperationType = "iterate"
	OpEmit     OperationType = "emit"
	OpCount    OperationType = "count"
	OpClone    OperationType = "clone"
	OpOrder    OperationType = "order"
	OpLimit    OperationType = "limit"
	OpFilter   OperationType = "filter"
	OpSimplify OperationType = "simplify"
)

// Collector accumulates per-operation counts and error counts. A single
// collector may be shared by many coordinators.
type Collector struct {
	counts   map[OperationType]*atomic.Uint64
	countsMu sync.RWMutex // only taken when creating new counter entries

	lastOpTime   map[OperationType]time.Time
	lastOpTimeMu sync.RWMutex

	errors   map[string]*atomic.Uint64
	errorsMu sync.RWMutex
}

// NewCollector creates an empty statistics collector.
func NewCollector() *Collector {
	return &Collector{
		counts:     make(map[OperationType]*atomic.Uint64),
		lastOpTime: make(map[OperationType]time.Time),
		errors:     make(map[string]*atomic.Uint64),
	}
}

// TrackOperation increments the counter for the given operation type.
func (c *Collector) TrackOperation(op OperationType) {
	c.getOrCreateCounter(op).Add(1)

	c.lastOpTimeMu.Lock()
	c.lastOpTime[op] = time.Now()
	c.lastOpTimeMu.Unlock()
}

// TrackOperationN adds n to the counter for the given operation type.
// Used for bulk counts such as elements emitted by one iteration pass.
func (c *Collector) TrackOperationN(op OperationType, n uint64) {
	if n == 0 {
		return
	}
	c.getOrCreateCounter(op).Add(n)

	c.lastOpTimeMu.Lock()
	c.lastOpTime[op] = time.Now()
	c.lastOpTimeMu.Unlock()
}

// TrackError increments the counter for the given error kind.
func (c *Collector) TrackError(kind string) {
	c.errorsMu.RLock()
	counter, ok := c.errors[kind]
	c.errorsMu.RUnlock()
	if !ok {
		c.errorsMu.Lock()
		if counter, ok = c.errors[kind]; !ok {
			counter = &atomic.Uint64{}
			c.errors[kind] = counter
		}
		c.errorsMu.Unlock()
	}
	counter.Add(1)
}

// GetCount returns the current count for an operation type.
func (c *Collector) GetCount(op OperationType) uint64 {
	c.countsMu.RLock()
	counter, ok := c.counts[op]
	c.countsMu.RUnlock()
	if !ok {
		return 0
	}
	return counter.Load()
}

// Snapshot returns a point-in-time copy of all statistics.
func (c *Collector) Snapshot() map[string]uint64 {
	out := make(map[string]uint64)

	c.countsMu.RLock()
	for op, counter := range c.counts {
		out["ops."+string(op)] = counter.Load()
	}
	c.countsMu.RUnlock()

	c.errorsMu.RLock()
	for kind, counter := range c.errors {
		out["errors."+kind] = counter.Load()
	}
	c.errorsMu.RUnlock()

	return out
}

// LastOperationTime returns when the operation was last tracked.
func (c *Collector) LastOperationTime(op OperationType) (time.Time, bool) {
	c.lastOpTimeMu.RLock()
	defer c.lastOpTimeMu.RUnlock()
	t, ok := c.lastOpTime[op]
	return t, ok
}

func (c *Collector) getOrCreateCounter(op OperationType) *atomic.Uint64 {
	c.countsMu.RLock()
	counter, ok := c.counts[op]
	c.countsMu.RUnlock()
	if ok {
		return counter
	}

	c.countsMu.Lock()
	defer c.countsMu.Unlock()
	if counter, ok = c.counts[op]; !ok {
		counter = &atomic.Uint64{}
		c.counts[op] = counter
	}
	return counter
}
