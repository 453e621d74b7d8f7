package plugins

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/krisalay/dataset-host/dataset"
)

// Format is a data_points output layout, named after the pandas orientations.
type Format string

const (
	JSONL   Format = "jsonl"
	Records Format = "records"
	List    Format = "list"
	Dict    Format = "dict"
	Split   Format = "split"
	Tight   Format = "tight"
	Index   Format = "index"
)

const MIMEJSONLines = "application/jsonlines+json"

func (f Format) Valid() bool {
	switch f {
	case JSONL, Records, List, Dict, Split, Tight, Index:
		return true
	}
	return false
}

// object is a JSON object that keeps its key order.
type object struct {
	keys   []string
	values []any
}

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func rowObject(t *dataset.Table, row []any) object {
	return object{keys: t.Columns, values: row}
}

func column(t *dataset.Table, i int) []any {
	out := make([]any, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out
}

func write(c echo.Context, f Format, t *dataset.Table, axes []string) error {
	switch f {
	case JSONL:
		var buf bytes.Buffer
		for _, row := range t.Rows {
			b, err := json.Marshal(rowObject(t, row))
			if err != nil {
				return err
			}
			buf.Write(b)
			buf.WriteByte('\n')
		}
		return c.Blob(http.StatusOK, MIMEJSONLines, buf.Bytes())

	case Records:
		out := make([]object, len(t.Rows))
		for r, row := range t.Rows {
			out[r] = rowObject(t, row)
		}
		return c.JSON(http.StatusOK, out)

	case List:
		out := object{keys: t.Columns}
		for i := range t.Columns {
			out.values = append(out.values, column(t, i))
		}
		return c.JSON(http.StatusOK, out)

	case Dict:
		out := object{keys: t.Columns}
		for i := range t.Columns {
			byRow := object{}
			for r, row := range t.Rows {
				byRow.keys = append(byRow.keys, strconv.Itoa(r))
				byRow.values = append(byRow.values, row[i])
			}
			out.values = append(out.values, byRow)
		}
		return c.JSON(http.StatusOK, out)

	case Index:
		out := object{}
		for r, row := range t.Rows {
			out.keys = append(out.keys, strconv.Itoa(r))
			out.values = append(out.values, rowObject(t, row))
		}
		return c.JSON(http.StatusOK, out)

	case Split, Tight:
		return c.JSON(http.StatusOK, split(t, axes, f == Tight))
	}
	return echo.NewHTTPError(http.StatusBadRequest, "unsupported format")
}

/*
split lays the table out as index, columns and data. Axis columns present in
the table become the index; without any, rows are numbered.
*/
func split(t *dataset.Table, axes []string, tight bool) object {
	var axisIdx, dataIdx []int
	var indexNames, columns []string
	for i, c := range t.Columns {
		if contains(axes, c) {
			axisIdx = append(axisIdx, i)
			indexNames = append(indexNames, c)
		} else {
			dataIdx = append(dataIdx, i)
			columns = append(columns, c)
		}
	}

	index := make([]any, len(t.Rows))
	data := make([][]any, len(t.Rows))
	for r, row := range t.Rows {
		switch len(axisIdx) {
		case 0:
			index[r] = r
		case 1:
			index[r] = row[axisIdx[0]]
		default:
			key := make([]any, len(axisIdx))
			for j, i := range axisIdx {
				key[j] = row[i]
			}
			index[r] = key
		}
		values := make([]any, len(dataIdx))
		for j, i := range dataIdx {
			values[j] = row[i]
		}
		data[r] = values
	}
	if columns == nil {
		columns = []string{}
	}

	out := object{
		keys:   []string{"index", "columns", "data"},
		values: []any{index, columns, data},
	}
	if tight {
		var names any = indexNames
		if indexNames == nil {
			names = []any{nil}
		}
		out.keys = append(out.keys, "index_names", "column_names")
		out.values = append(out.values, names, []any{nil})
	}
	return out
}
