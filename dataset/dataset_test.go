package dataset_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/krisalay/dataset-host/dataset"
)

func simple(t *testing.T) *dataset.Dataset {
	t.Helper()
	d := dataset.New(nil)
	require.NoError(t, d.AddVariable(dataset.Variable{Name: "count", Dims: []string{"x"}, Values: []any{1, 2, 3}}))
	require.NoError(t, d.AddVariable(dataset.Variable{Name: "scalar", Values: []any{1}}))
	return d
}

func TestAddVariable(t *testing.T) {
	d := simple(t)

	assert.Equal(t, []string{"count", "scalar"}, d.Names())
	assert.Equal(t, []dataset.Dim{{Name: "x", Size: 3}}, d.Dims())

	err := d.AddVariable(dataset.Variable{Name: "count", Values: []any{1}})
	assert.ErrorIs(t, err, dataset.ErrDuplicateVariable)

	err = d.AddVariable(dataset.Variable{Name: "short", Dims: []string{"x"}, Values: []any{1}})
	assert.ErrorIs(t, err, dataset.ErrDimMismatch)

	err = d.AddVariable(dataset.Variable{Name: "grid", Dims: []string{"x", "y"}})
	assert.ErrorIs(t, err, dataset.ErrUnsupportedShape)

	err = d.AddVariable(dataset.Variable{Name: "empty"})
	assert.ErrorIs(t, err, dataset.ErrUnsupportedShape)
}

func TestTable(t *testing.T) {
	d := simple(t)

	tbl, err := d.Table("x", nil)
	require.NoError(t, err)

	want := &dataset.Table{
		Columns: []string{"x", "count", "scalar"},
		Rows: [][]any{
			{0, 1, 1},
			{1, 2, 1},
			{2, 3, 1},
		},
	}
	if diff := cmp.Diff(want, tbl); diff != "" {
		t.Fatalf("table mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, tbl.ColumnIndex("count"))
	assert.Equal(t, -1, tbl.ColumnIndex("nope"))
}

func TestTableUsesCoordinate(t *testing.T) {
	d := dataset.New(nil)
	require.NoError(t, d.AddVariable(dataset.Variable{Name: "time", Dims: []string{"time"}, Values: []any{"t0", "t1"}}))
	require.NoError(t, d.AddVariable(dataset.Variable{Name: "temp", Dims: []string{"time"}, Values: []any{10.5, 11.5}}))

	tbl, err := d.Table("time", []string{"temp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "temp"}, tbl.Columns)
	assert.Equal(t, [][]any{{"t0", 10.5}, {"t1", 11.5}}, tbl.Rows)

	_, err = d.Table("depth", nil)
	assert.ErrorIs(t, err, dataset.ErrUnknownDim)

	_, err = d.Table("time", []string{"salt"})
	assert.ErrorIs(t, err, dataset.ErrUnknownVariable)
}

func TestTableIgnoresNonCoordinateNamedAfterDim(t *testing.T) {
	d := dataset.New(nil)
	require.NoError(t, d.AddVariable(dataset.Variable{Name: "a", Dims: []string{"x"}, Values: []any{"a0", "a1", "a2"}}))
	require.NoError(t, d.AddVariable(dataset.Variable{Name: "x", Values: []any{5}}))

	tbl, err := d.Table("x", nil)
	require.NoError(t, err)
	want := &dataset.Table{
		Columns: []string{"x", "a", "x"},
		Rows: [][]any{
			{0, "a0", 5},
			{1, "a1", 5},
			{2, "a2", 5},
		},
	}
	if diff := cmp.Diff(want, tbl); diff != "" {
		t.Fatalf("table mismatch (-want +got):\n%s", diff)
	}

	tbl, err = d.Table("x", []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{0, "a0"}, {1, "a1"}, {2, "a2"}}, tbl.Rows)
}

func TestFromJSONKeepsOrder(t *testing.T) {
	doc := gjson.Parse(`{
		"attrs": {"title": "demo"},
		"variables": {
			"zeta":  {"dims": ["x"], "values": [1, 2]},
			"alpha": {"dims": ["x"], "values": [3, 4], "attrs": {"units": "m"}},
			"one":   {"values": 1}
		}
	}`)

	d, err := dataset.FromJSON(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "one"}, d.Names())
	assert.Equal(t, "demo", d.Attrs["title"])

	alpha, ok := d.Variable("alpha")
	require.True(t, ok)
	assert.Equal(t, []any{3.0, 4.0}, alpha.Values)
	assert.Equal(t, "m", alpha.Attrs["units"])

	one, _ := d.Variable("one")
	assert.True(t, one.IsScalar())

	_, err = dataset.FromJSON(gjson.Parse(`[1,2]`))
	assert.Error(t, err)
}

func TestFromColumns(t *testing.T) {
	d, err := dataset.FromColumns("row", []string{"a", "b"}, [][]any{{1, "x"}, {2, "y"}})
	require.NoError(t, err)
	assert.Equal(t, []dataset.Dim{{Name: "row", Size: 2}}, d.Dims())

	b, _ := d.Variable("b")
	assert.Equal(t, []any{"x", "y"}, b.Values)

	s := d.Summary()
	assert.Equal(t, map[string]int{"row": 2}, s.Dims)
	assert.Len(t, s.Variables, 2)
}
