package sketch

import (
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Dimensions is the shape of a sketch's counter grid.
type Dimensions struct {
	Width int `json:"width"`
	Depth int `json:"depth"`
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Depth)
}

// DimensionMismatchError is returned when sketches or persisted state of differing shapes are combined.
type DimensionMismatchError struct {
	Want Dimensions
	Got  Dimensions
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("sketch dimension mismatch: want width=%d depth=%d, got width=%d depth=%d",
		e.Want.Width, e.Want.Depth, e.Got.Width, e.Got.Depth)
}

// Sketch is a Count-Min Sketch over string keys.
// Estimate may be called concurrently once no goroutine is calling Add or Merge.
type Sketch struct {
	width    int
	depth    int
	counters [][]uint64
}

// New returns an empty sketch with the supplied width and depth.
func New(width, depth int) (*Sketch, error) {
	if width <= 0 || depth <= 0 {
		return nil, fmt.Errorf("sketch width and depth must be positive, got width=%d depth=%d", width, depth)
	}
	counters := make([][]uint64, depth)
	for i := range counters {
		counters[i] = make([]uint64, width)
	}
	return &Sketch{width: width, depth: depth, counters: counters}, nil
}

// NewWithDimensions returns an empty sketch with the supplied shape.
func NewWithDimensions(dims Dimensions) (*Sketch, error) {
	return New(dims.Width, dims.Depth)
}

func (s *Sketch) Width() int { return s.width }
func (s *Sketch) Depth() int { return s.depth }

func (s *Sketch) Dimensions() Dimensions {
	return Dimensions{Width: s.width, Depth: s.depth}
}

// column returns the counter column for key in the given row.
func (s *Sketch) column(row int, key string) int {
	d := xxhash.NewWithSeed(uint64(row))
	_, _ = d.WriteString(key)
	return int(d.Sum64() % uint64(s.width))
}

// Add increments the counters for key by count. A zero count is a no-op.
func (s *Sketch) Add(key string, count uint64) {
	if count == 0 {
		return
	}
	for i := 0; i < s.depth; i++ {
		s.counters[i][s.column(i, key)] += count
	}
}

// Increment adds a single occurrence of key.
func (s *Sketch) Increment(key string) {
	s.Add(key, 1)
}

// Estimate returns the smallest counter addressed by key, which is never below the true count.
func (s *Sketch) Estimate(key string) uint64 {
	var least uint64 = math.MaxUint64
	for i := 0; i < s.depth; i++ {
		least = min(least, s.counters[i][s.column(i, key)])
	}
	return least
}

// Merge adds every counter of other into s. Both sketches must have identical dimensions.
func (s *Sketch) Merge(other *Sketch) error {
	if other == nil {
		return fmt.Errorf("cannot merge a nil sketch")
	}
	if s.width != other.width || s.depth != other.depth {
		return fmt.Errorf("%w", &DimensionMismatchError{Want: s.Dimensions(), Got: other.Dimensions()})
	}
	for i := 0; i < s.depth; i++ {
		for j := 0; j < s.width; j++ {
			s.counters[i][j] += other.counters[i][j]
		}
	}
	return nil
}

// Clone returns a deep copy of the sketch.
func (s *Sketch) Clone() *Sketch {
	c, _ := New(s.width, s.depth)
	for i := range s.counters {
		copy(c.counters[i], s.counters[i])
	}
	return c
}

// Total is the sum of every count added. Each add touches exactly one cell per row so any row sums to it.
func (s *Sketch) Total() uint64 {
	var total uint64
	for _, c := range s.counters[0] {
		total += c
	}
	return total
}

// Counters returns a copy of the counter grid in row-major order.
func (s *Sketch) Counters() [][]uint64 {
	out := make([][]uint64, s.depth)
	for i := range s.counters {
		out[i] = append([]uint64(nil), s.counters[i]...)
	}
	return out
}

// ErrorBound is the overestimate that holds for any key with probability Confidence.
func (s *Sketch) ErrorBound() float64 {
	return float64(s.Total()) * math.E / float64(s.width)
}

// Confidence is the probability that an estimate is within ErrorBound of the true count.
func (s *Sketch) Confidence() float64 {
	return 1 - math.Exp(-float64(s.depth))
}

// DimensionsFor returns the smallest sketch shape giving an overestimate of at most
// epsilon*total with probability 1-delta.
func DimensionsFor(epsilon, delta float64) (Dimensions, error) {
	if epsilon <= 0 || epsilon >= 1 || delta <= 0 || delta >= 1 {
		return Dimensions{}, fmt.Errorf("epsilon and delta must be in (0, 1), got %v and %v", epsilon, delta)
	}
	return Dimensions{
		Width: int(math.Ceil(math.E / epsilon)),
		Depth: int(math.Ceil(math.Log(1 / delta))),
	}, nil
}
