package sketch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	s, _ := New(1000, 5)
	s.Add("A", 10)
	s.Add("B", 3)
	raw, err := Save(s)
	require.Nil(t, err)

	loaded, err := Load(raw, 1000, 5)
	require.Nil(t, err)
	require.Equal(t, uint64(10), loaded.Estimate("A"))
	require.Equal(t, uint64(3), loaded.Estimate("B"))
	require.Equal(t, s.Counters(), loaded.Counters())

	self, err := Unmarshal(raw)
	require.Nil(t, err)
	require.Equal(t, Dimensions{Width: 1000, Depth: 5}, self.Dimensions())
}

func TestLoadedSketchKeepsCounting(t *testing.T) {
	raw := []byte(`{"version":1,"width":4,"depth":2,"counters":[[0,3,0,1],[1,0,3,0]]}`)
	s, err := Load(raw, 4, 2)
	require.Nil(t, err)
	require.Equal(t, uint64(4), s.Total())
	s.Add("A", 2)
	require.Equal(t, uint64(6), s.Total())

	_, err = Load(raw, 0, 2)
	require.Error(t, err)
	_, err = Load(raw, 4, -1)
	require.Error(t, err)
}

func TestLoadDimensionMismatch(t *testing.T) {
	s, _ := New(1000, 5)
	s.Increment("X")
	raw, err := Save(s)
	require.Nil(t, err)

	var mismatch *DimensionMismatchError
	_, err = Load(raw, 1000, 4)
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, Dimensions{Width: 1000, Depth: 4}, mismatch.Want)
	require.Equal(t, Dimensions{Width: 1000, Depth: 5}, mismatch.Got)

	_, err = Load(raw, 500, 5)
	require.ErrorAs(t, err, &mismatch)
}

func TestLoadHeaderlessGrid(t *testing.T) {
	// grids written without a header only carry their shape implicitly
	raw := []byte(`[[0,1,0],[2,0,0]]`)
	s, err := Load(raw, 3, 2)
	require.Nil(t, err)
	require.Equal(t, [][]uint64{{0, 1, 0}, {2, 0, 0}}, s.Counters())

	var mismatch *DimensionMismatchError
	_, err = Load(raw, 3, 3)
	require.ErrorAs(t, err, &mismatch)
	_, err = Load(raw, 4, 2)
	require.ErrorAs(t, err, &mismatch)
	// ragged rows never truncate or pad
	_, err = Load([]byte(`[[0,1,0],[2,0]]`), 3, 2)
	require.ErrorAs(t, err, &mismatch)

	_, err = Unmarshal(raw)
	var malformed *MalformedStateError
	require.ErrorAs(t, err, &malformed)
}

func TestLoadHeaderGridDisagree(t *testing.T) {
	raw := []byte(`{"version":1,"width":3,"depth":2,"counters":[[0,1,0]]}`)
	var mismatch *DimensionMismatchError
	_, err := Load(raw, 3, 2)
	require.ErrorAs(t, err, &mismatch)
}

func TestLoadMalformed(t *testing.T) {
	tables := []struct {
		test string
		raw  string
	}{
		{"empty", ""},
		{"not_json", "cms"},
		{"bad_grid", `[["a"]]`},
		{"future_version", `{"version":9,"width":1,"depth":1,"counters":[[0]]}`},
	}
	for _, table := range tables {
		_, err := Load([]byte(table.raw), 1, 1)
		var malformed *MalformedStateError
		require.ErrorAs(t, err, &malformed, table.test)
	}
}
