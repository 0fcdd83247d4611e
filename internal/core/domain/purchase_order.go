package domain

import (
	"strings"
	"time"
)

// UnspecifiedStatus groups purchase orders with a blank status or project.
const UnspecifiedStatus = "Unspecified"

// POSummary aggregates purchase-order counts.
type POSummary struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
	ByProject   map[string]int `json:"by_project"`
	GeneratedAt time.Time      `json:"generated_at"`
	CachedUntil time.Time      `json:"cached_until"`
	FromCache   bool           `json:"from_cache"`
}

// Counter groups values case-insensitively, keeping the first-seen spelling.
type Counter struct {
	counts map[string]int
	labels map[string]string
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{
		counts: make(map[string]int),
		labels: make(map[string]string),
	}
}

// Add counts one occurrence of value. Blank values count as UnspecifiedStatus.
func (c *Counter) Add(value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = UnspecifiedStatus
	}
	key := strings.ToLower(value)
	if _, ok := c.labels[key]; !ok {
		c.labels[key] = value
	}
	c.counts[key]++
}

// Map returns the counts keyed by display label.
func (c *Counter) Map() map[string]int {
	out := make(map[string]int, len(c.counts))
	for key, n := range c.counts {
		out[c.labels[key]] = n
	}
	return out
}
