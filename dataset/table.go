package dataset

import "fmt"

// Table is a row-major view of a dataset along one dimension.
type Table struct {
	Columns []string
	Rows    [][]any
}

/*
Table flattens the named variables along dim. The first column is the
dimension itself: its coordinate variable when one exists, the row number
otherwise. Only a 1-D variable along dim named after it is a coordinate; any
other variable sharing the name is an ordinary column. Scalars are repeated on every row. An empty names list selects
every variable that lies on dim or is a scalar.
*/
func (d *Dataset) Table(dim string, names []string) (*Table, error) {
	size, ok := d.Dim(dim)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDim, dim)
	}

	var cols []*Variable
	if len(names) == 0 {
		for _, v := range d.vars {
			if isCoordinate(v, dim) {
				continue
			}
			if v.IsScalar() || v.Dims[0] == dim {
				cols = append(cols, v)
			}
		}
	} else {
		for _, name := range names {
			v, ok := d.Variable(name)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
			}
			if !v.IsScalar() && v.Dims[0] != dim {
				return nil, fmt.Errorf("%w: %s is not along %s", ErrDimMismatch, name, dim)
			}
			if isCoordinate(v, dim) {
				continue
			}
			cols = append(cols, v)
		}
	}

	coord, hasCoord := d.Variable(dim)
	hasCoord = hasCoord && isCoordinate(coord, dim)

	t := &Table{
		Columns: make([]string, 0, len(cols)+1),
		Rows:    make([][]any, size.Size),
	}
	t.Columns = append(t.Columns, dim)
	for _, v := range cols {
		t.Columns = append(t.Columns, v.Name)
	}

	for i := range t.Rows {
		row := make([]any, 0, len(t.Columns))
		if hasCoord {
			row = append(row, coord.Values[i])
		} else {
			row = append(row, i)
		}
		for _, v := range cols {
			if v.IsScalar() {
				row = append(row, v.Values[0])
			} else {
				row = append(row, v.Values[i])
			}
		}
		t.Rows[i] = row
	}
	return t, nil
}

func isCoordinate(v *Variable, dim string) bool {
	return v.Name == dim && !v.IsScalar() && v.Dims[0] == dim
}

// ColumnIndex returns the position of name in t.Columns, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}
