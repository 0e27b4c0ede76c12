package store

import (
	"sync/atomic"
	"time"

	"github.com/heysubinoy/minidis/pkg/kv"
)

// Op identifies an instrumented store operation.
type Op int

// Instrumented operations, one per kv.Store method.
const (
	OpGet Op = iota
	OpSet
	OpDelete
	OpExists
	OpKeys
	OpFlush
	OpSize
	numOps
)

var opNames = [numOps]string{
	OpGet:    "get",
	OpSet:    "set",
	OpDelete: "delete",
	OpExists: "exists",
	OpKeys:   "keys",
	OpFlush:  "flush",
	OpSize:   "size",
}

func (o Op) String() string {
	if o < 0 || o >= numOps {
		return "unknown"
	}
	return opNames[o]
}

// opMetrics holds counters for a single operation.
// Uses atomic operations for thread-safe updates without locks.
type opMetrics struct {
	count     atomic.Uint64
	errors    atomic.Uint64
	latencyNs atomic.Uint64 // cumulative
}

// InstrumentedStore wraps any kv.Store implementation with timing metrics.
// This pattern works for both in-memory and Raft-backed stores.
type InstrumentedStore struct {
	store   kv.Store
	metrics [numOps]opMetrics
}

// Compile-time check to ensure InstrumentedStore implements kv.Store.
var _ kv.Store = (*InstrumentedStore)(nil)

// NewInstrumentedStore wraps a store with instrumentation.
func NewInstrumentedStore(store kv.Store) *InstrumentedStore {
	return &InstrumentedStore{store: store}
}

func (s *InstrumentedStore) observe(op Op, start time.Time, err error) {
	m := &s.metrics[op]
	m.count.Add(1)
	m.latencyNs.Add(uint64(time.Since(start).Nanoseconds()))
	if err != nil {
		m.errors.Add(1)
	}
}

// Get delegates to the wrapped store and records timing.
func (s *InstrumentedStore) Get(key string) (string, bool, error) {
	start := time.Now()
	value, found, err := s.store.Get(key)
	s.observe(OpGet, start, err)
	return value, found, err
}

// Set delegates to the wrapped store and records timing.
func (s *InstrumentedStore) Set(key, value string) error {
	start := time.Now()
	err := s.store.Set(key, value)
	s.observe(OpSet, start, err)
	return err
}

// Delete delegates to the wrapped store and records timing.
func (s *InstrumentedStore) Delete(key string) (bool, error) {
	start := time.Now()
	removed, err := s.store.Delete(key)
	s.observe(OpDelete, start, err)
	return removed, err
}

// Exists delegates to the wrapped store and records timing.
func (s *InstrumentedStore) Exists(key string) (bool, error) {
	start := time.Now()
	ok, err := s.store.Exists(key)
	s.observe(OpExists, start, err)
	return ok, err
}

// Keys delegates to the wrapped store and records timing.
func (s *InstrumentedStore) Keys() ([]string, error) {
	start := time.Now()
	keys, err := s.store.Keys()
	s.observe(OpKeys, start, err)
	return keys, err
}

// Flush delegates to the wrapped store and records timing.
func (s *InstrumentedStore) Flush() error {
	start := time.Now()
	err := s.store.Flush()
	s.observe(OpFlush, start, err)
	return err
}

// Size delegates to the wrapped store and records timing.
func (s *InstrumentedStore) Size() (int, error) {
	start := time.Now()
	n, err := s.store.Size()
	s.observe(OpSize, start, err)
	return n, err
}

// GetMetrics returns a snapshot of current metrics.
func (s *InstrumentedStore) GetMetrics() MetricsSnapshot {
	snap := make(MetricsSnapshot, numOps)
	for op := Op(0); op < numOps; op++ {
		m := &s.metrics[op]
		count := m.count.Load()
		snap[op.String()] = OpSnapshot{
			Count:      count,
			Errors:     m.errors.Load(),
			AvgLatency: avgLatency(m.latencyNs.Load(), count),
		}
	}
	return snap
}

// ResetMetrics clears all metrics counters.
func (s *InstrumentedStore) ResetMetrics() {
	for op := range s.metrics {
		s.metrics[op].count.Store(0)
		s.metrics[op].errors.Store(0)
		s.metrics[op].latencyNs.Store(0)
	}
}

func avgLatency(totalNs, count uint64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(totalNs / count)
}

// OpSnapshot is a point-in-time view of one operation's metrics.
type OpSnapshot struct {
	Count      uint64
	Errors     uint64
	AvgLatency time.Duration
}

// MetricsSnapshot maps operation names to their metrics.
type MetricsSnapshot map[string]OpSnapshot
