package dedupe

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

var result bool

func TestFilter(t *testing.T) {
	f := New(16)
	require.Equal(t, 2, f.Slots())
	require.False(t, f.Seen("aaaaaa"), "empty filter")
	require.True(t, f.Seen("aaaaaa"), "last set")
	require.False(t, f.Seen("bbbbbb"), "new non colliding value")
	require.True(t, f.Seen("aaaaaa"), "still set")
	require.True(t, f.Seen("bbbbbb"), "last set")
	require.False(t, f.Seen("cccccc"), "new colliding value")
	require.False(t, f.Seen("dddddd"), "new colliding value")
	require.False(t, f.Seen("bbbbbb"), "was evicted")
}

func TestFilterMinimumSize(t *testing.T) {
	require.Equal(t, 1, New(0).Slots())
	require.Equal(t, 1, New(3).Slots())
	require.Equal(t, 128, New(1000).Slots())
}

func TestFilterForget(t *testing.T) {
	f := New(1024)
	require.False(t, f.Seen("evt-1"))
	require.True(t, f.Seen("evt-1"))
	f.Forget("evt-1")
	require.False(t, f.Seen("evt-1"))

	// forgetting an id that lost its slot leaves the occupant alone
	small := New(8)
	require.False(t, small.Seen("evt-1"))
	require.False(t, small.Seen("evt-2"))
	small.Forget("evt-1")
	require.True(t, small.Seen("evt-2"))
}

func TestFilterNoFalseDuplicates(t *testing.T) {
	f := New(1 << 12)
	for i := 0; i < 10000; i++ {
		require.False(t, f.Seen(fmt.Sprintf("event-%d", i)))
	}
}

func BenchmarkFilter(b *testing.B) {
	f := New(100000)
	var seed [1000]string
	for i := 0; i < len(seed); i++ {
		seed[i] = fmt.Sprintf("%016x", rand.Uint64())
	}
	b.ReportAllocs()
	for n := 0; n < b.N; n++ {
		result = f.Seen(seed[rand.Intn(len(seed))])
	}
}
