// Package metrics keeps in-memory runtime statistics for the board: turn,
// completion, summary, context and query timings, token usage per model
// tier, and counters for degraded paths.
package metrics

import (
	"sync"
	"time"
)

// Operation names for the collector.
const (
	OpTurn         = "turn"
	OpCompletion   = "completion"
	OpSummary      = "summary"
	OpContextBuild = "context_build"
	OpDBQuery      = "db_query"
)

// Event counters.
const (
	CounterPersonaFailures = "persona_failures"
	CounterDegradedContext = "degraded_context"
	CounterRateLimited     = "rate_limited"
)

// minMax tracks the extremes of a series without sentinel values.
type minMax[T int64 | time.Duration] struct {
	set      bool
	min, max T
}

func (m *minMax[T]) add(v T) {
	if !m.set {
		m.min, m.max, m.set = v, v, true
		return
	}
	m.min = min(m.min, v)
	m.max = max(m.max, v)
}

// opStats aggregates one operation.
type opStats struct {
	count    int64
	failures int64
	total    time.Duration
	timing   minMax[time.Duration]

	// token usage, only fed by RecordLLMUsage
	usageSamples int64
	inputTotal   int64
	outputTotal  int64
	input        minMax[int64]
	output       minMax[int64]
}

func (s *opStats) addTiming(d time.Duration) {
	s.count++
	s.total += d
	s.timing.add(d)
}

func (s *opStats) addUsage(in, out int64) {
	s.usageSamples++
	s.inputTotal += in
	s.outputTotal += out
	s.input.add(in)
	s.output.add(out)
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	Failures    int64   `json:"failures"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`

	// Token stats (nil if not applicable). Averages are per successful call.
	TotalInputTokens  *int64   `json:"total_input_tokens,omitempty"`
	TotalOutputTokens *int64   `json:"total_output_tokens,omitempty"`
	AvgInputTokens    *float64 `json:"avg_input_tokens,omitempty"`
	AvgOutputTokens   *float64 `json:"avg_output_tokens,omitempty"`
	MinInputTokens    *int64   `json:"min_input_tokens,omitempty"`
	MaxInputTokens    *int64   `json:"max_input_tokens,omitempty"`
	MinOutputTokens   *int64   `json:"min_output_tokens,omitempty"`
	MaxOutputTokens   *int64   `json:"max_output_tokens,omitempty"`
}

func (s *opStats) snapshot() *OperationSnapshot {
	if s == nil || s.count == 0 {
		return nil
	}
	snap := &OperationSnapshot{
		Count:       s.count,
		Failures:    s.failures,
		TotalTimeMs: s.total.Milliseconds(),
		AvgTimeMs:   float64(s.total.Milliseconds()) / float64(s.count),
		MinTimeMs:   s.timing.min.Milliseconds(),
		MaxTimeMs:   s.timing.max.Milliseconds(),
	}
	if s.usageSamples == 0 {
		return snap
	}

	totalIn, totalOut := s.inputTotal, s.outputTotal
	avgIn := float64(totalIn) / float64(s.usageSamples)
	avgOut := float64(totalOut) / float64(s.usageSamples)
	minIn, maxIn := s.input.min, s.input.max
	minOut, maxOut := s.output.min, s.output.max

	snap.TotalInputTokens = &totalIn
	snap.TotalOutputTokens = &totalOut
	snap.AvgInputTokens = &avgIn
	snap.AvgOutputTokens = &avgOut
	snap.MinInputTokens = &minIn
	snap.MaxInputTokens = &maxIn
	snap.MinOutputTokens = &minOut
	snap.MaxOutputTokens = &maxOut
	return snap
}

// Snapshot represents the full server statistics at a point in time.
type Snapshot struct {
	UptimeSeconds    float64                       `json:"uptime_seconds"`
	Turn             *OperationSnapshot            `json:"turn,omitempty"`
	Completion       *OperationSnapshot            `json:"completion,omitempty"`
	CompletionByTier map[string]*OperationSnapshot `json:"completion_by_tier,omitempty"`
	Summary          *OperationSnapshot            `json:"summary,omitempty"`
	ContextBuild     *OperationSnapshot            `json:"context_build,omitempty"`
	DBQuery          *OperationSnapshot            `json:"db_query,omitempty"`
	Counters         map[string]int64              `json:"counters,omitempty"`
}

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe and safe to call on a nil Collector.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*opStats
	tiers     map[string]*opStats
	counters  map[string]int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*opStats),
		tiers:     make(map[string]*opStats),
		counters:  make(map[string]int64),
	}
}

// stats returns the aggregate for key in m, creating it.
// Caller must hold the write lock.
func stats(m map[string]*opStats, key string) *opStats {
	s, ok := m[key]
	if !ok {
		s = &opStats{}
		m[key] = s
	}
	return s
}

// RecordTiming records a successful operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	stats(c.ops, op).addTiming(duration)
}

// RecordFailure records a failed attempt of an operation.
func (c *Collector) RecordFailure(op string, duration time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	s := stats(c.ops, op)
	s.addTiming(duration)
	s.failures++
}

// RecordLLMUsage records timing and token usage for a completed model call.
func (c *Collector) RecordLLMUsage(op string, duration time.Duration, inputTokens, outputTokens int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	s := stats(c.ops, op)
	s.addTiming(duration)
	s.addUsage(inputTokens, outputTokens)
}

// RecordTierUsage attributes one completion to a model tier. A negative
// token count marks a failed call.
func (c *Collector) RecordTierUsage(tier string, duration time.Duration, inputTokens, outputTokens int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	s := stats(c.tiers, tier)
	s.addTiming(duration)
	if inputTokens < 0 || outputTokens < 0 {
		s.failures++
		return
	}
	s.addUsage(inputTokens, outputTokens)
}

// Incr bumps an event counter.
func (c *Collector) Incr(counter string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counters[counter]++
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Turn:          c.ops[OpTurn].snapshot(),
		Completion:    c.ops[OpCompletion].snapshot(),
		Summary:       c.ops[OpSummary].snapshot(),
		ContextBuild:  c.ops[OpContextBuild].snapshot(),
		DBQuery:       c.ops[OpDBQuery].snapshot(),
	}
	if len(c.tiers) > 0 {
		snap.CompletionByTier = make(map[string]*OperationSnapshot, len(c.tiers))
		for tier, s := range c.tiers {
			snap.CompletionByTier[tier] = s.snapshot()
		}
	}
	if len(c.counters) > 0 {
		snap.Counters = make(map[string]int64, len(c.counters))
		for name, n := range c.counters {
			snap.Counters[name] = n
		}
	}
	return snap
}
