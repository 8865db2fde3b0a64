package sketch

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// StateVersion identifies the row hashing and layout of persisted state.
const StateVersion = 1

// MalformedStateError is returned when persisted state cannot be decoded.
type MalformedStateError struct {
	msg string
}

func (e *MalformedStateError) Error() string {
	return fmt.Sprintf("malformed sketch state: %s", e.msg)
}

// state is the persisted form, carrying its own dimensions so readers can't silently misread it.
type state struct {
	Version  int        `json:"version"`
	Width    int        `json:"width"`
	Depth    int        `json:"depth"`
	Counters [][]uint64 `json:"counters"`
}

// Save encodes the sketch's counter grid along with its dimensions and version.
func Save(s *Sketch) ([]byte, error) {
	return json.Marshal(&state{
		Version:  StateVersion,
		Width:    s.width,
		Depth:    s.depth,
		Counters: s.counters,
	})
}

// Load decodes persisted state into a sketch of the expected width and depth.
// State of any other shape fails with DimensionMismatchError.
// A bare row-major grid without a header is accepted, its shape checked against the expected dimensions.
func Load(raw []byte, width, depth int) (*Sketch, error) {
	if width <= 0 || depth <= 0 {
		return nil, fmt.Errorf("sketch width and depth must be positive, got width=%d depth=%d", width, depth)
	}
	want := Dimensions{Width: width, Depth: depth}
	st, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if st.Version != 0 && (st.Width != width || st.Depth != depth) {
		return nil, fmt.Errorf("%w", &DimensionMismatchError{Want: want, Got: Dimensions{Width: st.Width, Depth: st.Depth}})
	}
	if got := gridDimensions(st.Counters); got != want {
		return nil, fmt.Errorf("%w", &DimensionMismatchError{Want: want, Got: got})
	}
	return &Sketch{width: width, depth: depth, counters: st.Counters}, nil
}

// Unmarshal decodes versioned state using the dimensions it carries.
func Unmarshal(raw []byte) (*Sketch, error) {
	st, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if st.Version == 0 {
		return nil, &MalformedStateError{"state has no header, dimensions must be supplied"}
	}
	return Load(raw, st.Width, st.Depth)
}

func decode(raw []byte) (*state, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, &MalformedStateError{"empty"}
	}
	st := state{}
	if trimmed[0] == '[' {
		// headerless grid
		err := json.Unmarshal(trimmed, &st.Counters)
		if err != nil {
			return nil, &MalformedStateError{err.Error()}
		}
		return &st, nil
	}
	err := json.Unmarshal(trimmed, &st)
	if err != nil {
		return nil, &MalformedStateError{err.Error()}
	}
	if st.Version != StateVersion {
		return nil, &MalformedStateError{fmt.Sprintf("unsupported version %d", st.Version)}
	}
	return &st, nil
}

// gridDimensions reports the shape of a grid, or a zero width if rows are ragged.
func gridDimensions(grid [][]uint64) Dimensions {
	if len(grid) == 0 {
		return Dimensions{}
	}
	width := len(grid[0])
	for _, row := range grid[1:] {
		if len(row) != width {
			return Dimensions{Width: 0, Depth: len(grid)}
		}
	}
	return Dimensions{Width: width, Depth: len(grid)}
}
