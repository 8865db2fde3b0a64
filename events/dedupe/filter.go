package dedupe

import (
	"math"
	"sync/atomic"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/prom"
	"github.com/cespare/xxhash/v2"
)

// Filter remembers recently seen event ids in a fixed number of slots.
type Filter struct {
	slots []uint64
	mask  uint64
}

// New returns a Filter using roughly size bytes, rounded up to a power of two.
func New(size uint64) *Filter {
	size = uint64(math.Pow(2, math.Ceil(math.Log2(float64(size)))))
	if size < 8 {
		size = 8
	}
	// one uint64 hash per slot
	size = size / 8
	return &Filter{slots: make([]uint64, size), mask: size - 1}
}

// Slots is the number of ids the filter can hold before eviction is certain.
func (f *Filter) Slots() int {
	return len(f.slots)
}

// Seen reports whether id was the last value stored in its slot, and stores it.
func (f *Filter) Seen(id string) bool {
	prom.DedupeCacheLookups.Inc()
	h := xxhash.Sum64String(id)
	prev := swap(f.slots, h&f.mask, h)
	if prev == h {
		prom.DedupeCacheHits.Inc()
		return true
	}
	if prev != 0 {
		prom.DedupeCacheCollisions.Inc()
	}
	return false
}

// Forget clears id from the filter if it still holds the slot.
// Used when storing a delivery failed so a redelivery is not dropped.
func (f *Filter) Forget(id string) {
	h := xxhash.Sum64String(id)
	atomic.CompareAndSwapUint64(&f.slots[h&f.mask], h, 0)
}

func swap(arr []uint64, index uint64, val uint64) uint64 {
	return atomic.SwapUint64(&arr[index], val)
}
