// Package observability tracks how index targets are decoded so operators can
// see which columns and read modes the catalog's indexes depend on.
package observability

import (
	"sort"
	"sync"
	"time"

	"github.com/arkilian/sindex/internal/index/target"
)

// TargetStats tracks decoded target columns and decode failures.
type TargetStats struct {
	mu         sync.RWMutex
	columnFreq map[string]*ColumnStats
	failures   map[string]int64
	local      int64
	single     int64
	window     time.Duration
	now        func() time.Time
}

// ColumnStats holds statistics for one table column.
type ColumnStats struct {
	Table     string         `json:"table"`
	Column    string         `json:"column"`
	Frequency int64          `json:"frequency"`
	LastSeen  time.Time      `json:"last_seen"`
	Modes     map[string]int `json:"modes"` // mode → count (e.g., "keys" → 3)
}

// Summary is a point-in-time copy of the counters.
type Summary struct {
	Local    int64            `json:"local"`
	Single   int64            `json:"single"`
	Failures map[string]int64 `json:"failures"`
	Columns  []ColumnStats    `json:"columns"`
}

// NewTargetStats creates a new target statistics tracker.
// window: time duration for pruning old column entries (e.g., 1 hour)
func NewTargetStats(window time.Duration) *TargetStats {
	return &TargetStats{
		columnFreq: make(map[string]*ColumnStats),
		failures:   make(map[string]int64),
		window:     window,
		now:        time.Now,
	}
}

// RecordDescription records every column of a decoded target.
// This method is thread-safe.
func (s *TargetStats) RecordDescription(table string, d *target.Description) {
	if d == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if d.IsLocal() {
		s.local++
	} else {
		s.single++
	}

	now := s.now()
	for _, cols := range [][]string{d.PrimaryNames(), d.SecondaryNames()} {
		for _, name := range cols {
			key := table + "." + name
			stats, exists := s.columnFreq[key]
			if !exists {
				stats = &ColumnStats{
					Table:  table,
					Column: name,
					Modes:  make(map[string]int),
				}
				s.columnFreq[key] = stats
			}
			stats.Frequency++
			stats.LastSeen = now
			stats.Modes[d.Mode.String()]++
		}
	}
}

// RecordFailure records a decode failure by error code.
func (s *TargetStats) RecordFailure(code string) {
	if code == "" {
		code = "UNKNOWN"
	}
	s.mu.Lock()
	s.failures[code]++
	s.mu.Unlock()
}

// GetTopColumns returns the top N columns by frequency.
// Returns a copy of the stats sorted by frequency (descending), then by name.
func (s *TargetStats) GetTopColumns(n int) []ColumnStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || len(s.columnFreq) == 0 {
		return []ColumnStats{}
	}

	stats := make([]ColumnStats, 0, len(s.columnFreq))
	for _, c := range s.columnFreq {
		cp := *c
		cp.Modes = make(map[string]int, len(c.Modes))
		for m, count := range c.Modes {
			cp.Modes[m] = count
		}
		stats = append(stats, cp)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Frequency != stats[j].Frequency {
			return stats[i].Frequency > stats[j].Frequency
		}
		if stats[i].Table != stats[j].Table {
			return stats[i].Table < stats[j].Table
		}
		return stats[i].Column < stats[j].Column
	})

	if n > len(stats) {
		n = len(stats)
	}
	return stats[:n]
}

// Snapshot returns the counters together with the top N columns.
func (s *TargetStats) Snapshot(n int) Summary {
	columns := s.GetTopColumns(n)

	s.mu.RLock()
	defer s.mu.RUnlock()

	failures := make(map[string]int64, len(s.failures))
	for code, count := range s.failures {
		failures[code] = count
	}
	return Summary{
		Local:    s.local,
		Single:   s.single,
		Failures: failures,
		Columns:  columns,
	}
}

// Prune removes column entries not seen within the window.
// This should be called periodically (e.g., every 5 minutes).
func (s *TargetStats) Prune() {
	s.mu.Lock()
	defer s.mu.Unlock()

	threshold := s.now().Add(-s.window)
	for key, stats := range s.columnFreq {
		if stats.LastSeen.Before(threshold) {
			delete(s.columnFreq, key)
		}
	}
}
