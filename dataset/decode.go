package dataset

import (
	"fmt"

	"github.com/tidwall/gjson"
)

/*
FromJSON builds a dataset from a document of the form

	{"attrs": {...}, "variables": {"name": {"dims": ["x"], "values": [...], "attrs": {...}}}}

Variables keep their document order. A variable without dims is a scalar and
may give its value directly: {"scalar": {"values": 1}}.
*/
func FromJSON(doc gjson.Result) (*Dataset, error) {
	if !doc.IsObject() {
		return nil, fmt.Errorf("dataset: document is not an object")
	}

	attrs, _ := doc.Get("attrs").Value().(map[string]any)
	d := New(attrs)

	var err error
	doc.Get("variables").ForEach(func(key, val gjson.Result) bool {
		v := Variable{Name: key.String()}
		for _, dim := range val.Get("dims").Array() {
			v.Dims = append(v.Dims, dim.String())
		}
		values := val.Get("values")
		if values.IsArray() {
			for _, x := range values.Array() {
				v.Values = append(v.Values, x.Value())
			}
		} else if values.Exists() {
			v.Values = []any{values.Value()}
		}
		if a, ok := val.Get("attrs").Value().(map[string]any); ok {
			v.Attrs = a
		}
		err = d.AddVariable(v)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

/*
FromColumns turns tabular data into a dataset along dim. Each column becomes a
1-D variable. A column named like dim becomes the coordinate variable.
*/
func FromColumns(dim string, columns []string, rows [][]any) (*Dataset, error) {
	d := New(nil)
	for c, name := range columns {
		values := make([]any, len(rows))
		for r, row := range rows {
			if c < len(row) {
				values[r] = row[c]
			}
		}
		if err := d.AddVariable(Variable{Name: name, Dims: []string{dim}, Values: values}); err != nil {
			return nil, err
		}
	}
	return d, nil
}
