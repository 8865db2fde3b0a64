package sketch

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadDimensions(t *testing.T) {
	_, err := New(0, 5)
	require.NotNil(t, err)
	_, err = New(10, -1)
	require.NotNil(t, err)
	s, err := New(10, 3)
	require.Nil(t, err)
	require.Equal(t, Dimensions{Width: 10, Depth: 3}, s.Dimensions())
	require.Equal(t, "10x3", s.Dimensions().String())
}

func TestEstimateExample(t *testing.T) {
	s, err := New(1000, 5)
	require.Nil(t, err)
	for i := 0; i < 10; i++ {
		s.Increment("A")
	}
	s.Add("B", 3)
	require.Equal(t, uint64(10), s.Estimate("A"))
	require.Equal(t, uint64(3), s.Estimate("B"))
	require.Equal(t, uint64(0), s.Estimate("C"))
	require.Equal(t, uint64(13), s.Total())
}

func TestAddZeroIsNoop(t *testing.T) {
	s, err := New(50, 4)
	require.Nil(t, err)
	s.Add("A", 0)
	require.Equal(t, uint64(0), s.Total())
	require.Equal(t, uint64(0), s.Estimate("A"))
}

func TestNoUndercount(t *testing.T) {
	// small width forces plenty of collisions
	s, err := New(20, 3)
	require.Nil(t, err)
	r := rand.New(rand.NewSource(42))
	exact := map[string]uint64{}
	for i := 0; i < 5000; i++ {
		key := fmt.Sprintf("key-%d", r.Intn(300))
		n := uint64(r.Intn(4) + 1)
		s.Add(key, n)
		exact[key] += n
	}
	for key, count := range exact {
		require.GreaterOrEqual(t, s.Estimate(key), count, key)
	}
}

func TestMergeLinearity(t *testing.T) {
	a, _ := New(64, 4)
	b, _ := New(64, 4)
	union, _ := New(64, 4)
	r := rand.New(rand.NewSource(7))
	keys := []string{}
	for i := 0; i < 2000; i++ {
		key := fmt.Sprintf("item-%d", r.Intn(500))
		keys = append(keys, key)
		if i%2 == 0 {
			a.Increment(key)
		} else {
			b.Increment(key)
		}
		union.Increment(key)
	}
	require.Nil(t, a.Merge(b))
	require.Equal(t, union.Counters(), a.Counters())
	for _, key := range keys {
		require.Equal(t, union.Estimate(key), a.Estimate(key))
	}
	require.Equal(t, union.Total(), a.Total())
}

func TestMergeDimensionMismatch(t *testing.T) {
	tables := []struct {
		test           string
		width, depth   int
		owidth, odepth int
	}{
		{"depth", 1000, 5, 1000, 4},
		{"width", 1000, 5, 999, 5},
		{"both", 10, 2, 20, 3},
	}
	for _, table := range tables {
		a, _ := New(table.width, table.depth)
		b, _ := New(table.owidth, table.odepth)
		a.Increment("X")
		b.Increment("X")
		err := a.Merge(b)
		var mismatch *DimensionMismatchError
		require.ErrorAs(t, err, &mismatch, table.test)
		require.Equal(t, Dimensions{Width: table.width, Depth: table.depth}, mismatch.Want, table.test)
		require.Equal(t, Dimensions{Width: table.owidth, Depth: table.odepth}, mismatch.Got, table.test)
		// failed merges leave the receiver untouched
		require.Equal(t, uint64(1), a.Estimate("X"), table.test)
	}
}

func TestMergeNil(t *testing.T) {
	a, _ := New(10, 2)
	a.Increment("X")
	require.Error(t, a.Merge(nil))
	require.Equal(t, uint64(1), a.Estimate("X"))
}

func TestCloneIsIndependent(t *testing.T) {
	s, _ := New(100, 3)
	s.Add("A", 4)
	c := s.Clone()
	c.Add("A", 1)
	require.Equal(t, uint64(4), s.Estimate("A"))
	require.Equal(t, uint64(5), c.Estimate("A"))
}

func TestHashingIsStable(t *testing.T) {
	// the same key must land in the same cells in every instance
	a, _ := New(1000, 5)
	b, _ := New(1000, 5)
	for i := 0; i < a.Depth(); i++ {
		require.Equal(t, a.column(i, "stable-key"), b.column(i, "stable-key"))
	}
	// rows use distinct hash functions
	cols := map[int]bool{}
	for i := 0; i < a.Depth(); i++ {
		cols[a.column(i, "stable-key")] = true
	}
	require.Greater(t, len(cols), 1)
}

func TestErrorBound(t *testing.T) {
	s, _ := New(200, 5)
	r := rand.New(rand.NewSource(1))
	exact := map[string]uint64{}
	for i := 0; i < 20000; i++ {
		key := fmt.Sprintf("k%d", r.Intn(2000))
		s.Increment(key)
		exact[key]++
	}
	bound := s.ErrorBound()
	require.InDelta(t, 20000*math.E/200, bound, 0.0001)
	require.InDelta(t, 1-math.Exp(-5), s.Confidence(), 0.0001)

	over := 0
	for key, count := range exact {
		if float64(s.Estimate(key)-count) > bound {
			over++
		}
	}
	// expected failure rate is at most e^-5 (under 1%), allow generous slack
	require.Less(t, float64(over)/float64(len(exact)), 0.05)
}

func TestDimensionsFor(t *testing.T) {
	dims, err := DimensionsFor(0.01, 0.01)
	require.Nil(t, err)
	require.Equal(t, Dimensions{Width: 272, Depth: 5}, dims)
	_, err = DimensionsFor(0, 0.5)
	require.NotNil(t, err)
}

func BenchmarkAdd(b *testing.B) {
	s, _ := New(1000, 5)
	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}
	b.ReportAllocs()
	for n := 0; n < b.N; n++ {
		s.Increment(keys[n%len(keys)])
	}
}
