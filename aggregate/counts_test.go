package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCountsMerge(t *testing.T) {
	a := Counts{"A": 2, "B": 1}
	b := Counts{"B": 4, "C": 7}
	merged := Merge(a, b)
	require.Equal(t, Counts{"A": 2, "B": 5, "C": 7}, merged)
	// inputs untouched
	require.Equal(t, Counts{"A": 2, "B": 1}, a)
	require.Equal(t, uint64(14), merged.Total())
	require.Equal(t, []string{"A", "B", "C"}, merged.Keys())

	a.Merge(b)
	require.Equal(t, merged, a)
}

func TestCountsMergeCommutes(t *testing.T) {
	a := Counts{"x": 1, "y": 9}
	b := Counts{"y": 1, "z": 3}
	require.Equal(t, Merge(a, b), Merge(b, a))
	require.Equal(t, Counts{}, Merge(nil, nil))
}

func TestAggregatorOrder(t *testing.T) {
	agg := NewAggregator()
	agg.Add("B", 1)
	agg.Add("A", 2)
	agg.Add("B", 3)
	require.Equal(t, []string{"B", "A"}, agg.Keys())
	require.Equal(t, uint64(4), agg.Get("B"))
	require.Equal(t, uint64(0), agg.Get("missing"))
	require.Equal(t, 2, agg.Len())

	other := NewAggregator()
	other.Add("C", 5)
	other.Add("A", 1)
	agg.Merge(other)
	require.Equal(t, []string{"B", "A", "C"}, agg.Keys())
	require.Equal(t, Counts{"A": 3, "B": 4, "C": 5}, agg.Counts())
}

func TestSum(t *testing.T) {
	now := time.Unix(1700000000, 0)
	b1 := NewBatch("batch_1", now, Counts{"A": 6, "B": 3})
	b2 := NewBatch("batch_2", now, Counts{"A": 4})
	agg := Sum([]*Batch{b1, b2})
	require.Equal(t, Counts{"A": 10, "B": 3}, agg.Counts())
	require.Equal(t, []string{"A", "B"}, agg.Keys())
	require.Equal(t, 0, Sum(nil).Len())
}
