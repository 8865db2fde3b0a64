// Package aggregate computes exact per-key totals over closed batches of counts.
package aggregate

import "sort"

// Counts maps a key to its exact non-negative total.
type Counts map[string]uint64

// Add increases the total for key by n.
func (c Counts) Add(key string, n uint64) {
	c[key] += n
}

// Merge adds every total in other into c (pointwise addition).
func (c Counts) Merge(other Counts) {
	for k, v := range other {
		c[k] += v
	}
}

// Total is the sum of all counts.
func (c Counts) Total() uint64 {
	var total uint64
	for _, v := range c {
		total += v
	}
	return total
}

// Keys returns every key in sorted order.
func (c Counts) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge returns the pointwise sum of a and b without modifying either.
func Merge(a, b Counts) Counts {
	out := make(Counts, len(a)+len(b))
	out.Merge(a)
	out.Merge(b)
	return out
}

// Aggregator sums counts while remembering the order keys were first seen,
// giving callers a deterministic iteration order for tie breaking.
type Aggregator struct {
	counts Counts
	order  []string
}

func NewAggregator() *Aggregator {
	return &Aggregator{counts: Counts{}}
}

// Add increases the total for key by n.
func (a *Aggregator) Add(key string, n uint64) {
	if _, ok := a.counts[key]; !ok {
		a.order = append(a.order, key)
	}
	a.counts[key] += n
}

// AddBatch adds every entry of the batch in entry order.
func (a *Aggregator) AddBatch(b *Batch) {
	for _, e := range b.Entries {
		a.Add(e.Key, e.Count)
	}
}

// Merge adds every total from other, appending keys new to a in other's order.
func (a *Aggregator) Merge(other *Aggregator) {
	for _, k := range other.order {
		a.Add(k, other.counts[k])
	}
}

// Get returns the total for key.
func (a *Aggregator) Get(key string) uint64 {
	return a.counts[key]
}

// Keys returns keys in first seen order.
func (a *Aggregator) Keys() []string {
	return append([]string(nil), a.order...)
}

// Counts returns a copy of the totals.
func (a *Aggregator) Counts() Counts {
	return Merge(a.counts, nil)
}

func (a *Aggregator) Len() int {
	return len(a.order)
}

// Sum aggregates batches in the order supplied.
func Sum(batches []*Batch) *Aggregator {
	agg := NewAggregator()
	for _, b := range batches {
		agg.AddBatch(b)
	}
	return agg
}
