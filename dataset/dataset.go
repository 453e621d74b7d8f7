// Package dataset is the in-memory value the built-in loaders produce: named
// 0-D and 1-D variables laid out along named dimensions.
package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateVariable = errors.New("dataset: duplicate variable")
	ErrUnsupportedShape  = errors.New("dataset: only scalar and 1-D variables are supported")
	ErrDimMismatch       = errors.New("dataset: dimension size mismatch")
	ErrUnknownVariable   = errors.New("dataset: unknown variable")
	ErrUnknownDim        = errors.New("dataset: unknown dimension")
)

// Dim is a named dimension and its length.
type Dim struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// Variable holds the values of one variable. Scalars have no dims and exactly one value.
type Variable struct {
	Name   string         `json:"name"`
	Dims   []string       `json:"dims"`
	Values []any          `json:"values"`
	Attrs  map[string]any `json:"attrs,omitempty"`
}

// IsScalar reports whether v has no dimensions.
func (v *Variable) IsScalar() bool { return len(v.Dims) == 0 }

/*
Dataset keeps variables and dimensions in insertion order so that listings and
tables come out the way the loader built them.
*/
type Dataset struct {
	Attrs map[string]any

	dims  []Dim
	vars  []*Variable
	index map[string]int
}

func New(attrs map[string]any) *Dataset {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return &Dataset{Attrs: attrs, index: map[string]int{}}
}

// AddVariable appends v. Its dimension is created on first use; later variables
// on the same dimension must match its size.
func (d *Dataset) AddVariable(v Variable) error {
	if _, ok := d.index[v.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateVariable, v.Name)
	}

	switch len(v.Dims) {
	case 0:
		if len(v.Values) != 1 {
			return fmt.Errorf("%w: scalar %s has %d values", ErrUnsupportedShape, v.Name, len(v.Values))
		}
	case 1:
		name := v.Dims[0]
		if dim, ok := d.Dim(name); ok {
			if dim.Size != len(v.Values) {
				return fmt.Errorf("%w: %s has %d values along %s (size %d)", ErrDimMismatch, v.Name, len(v.Values), name, dim.Size)
			}
		} else {
			d.dims = append(d.dims, Dim{Name: name, Size: len(v.Values)})
		}
	default:
		return fmt.Errorf("%w: %s has dims %v", ErrUnsupportedShape, v.Name, v.Dims)
	}

	nv := v
	d.index[v.Name] = len(d.vars)
	d.vars = append(d.vars, &nv)
	return nil
}

// Variable returns the named variable.
func (d *Dataset) Variable(name string) (*Variable, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.vars[i], true
}

// Names returns variable names in insertion order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.vars))
	for i, v := range d.vars {
		out[i] = v.Name
	}
	return out
}

// Dims returns the dimensions in the order they were first used.
func (d *Dataset) Dims() []Dim {
	return append([]Dim(nil), d.dims...)
}

func (d *Dataset) Dim(name string) (Dim, bool) {
	for _, dim := range d.dims {
		if dim.Name == name {
			return dim, true
		}
	}
	return Dim{}, false
}

// Summary is the JSON shape served for a dataset's description.
type Summary struct {
	Attrs     map[string]any   `json:"attrs"`
	Dims      map[string]int   `json:"dims"`
	Variables []VariableSchema `json:"variables"`
}

type VariableSchema struct {
	Name  string         `json:"name"`
	Dims  []string       `json:"dims"`
	Size  int            `json:"size"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

func (d *Dataset) Summary() Summary {
	s := Summary{
		Attrs:     d.Attrs,
		Dims:      make(map[string]int, len(d.dims)),
		Variables: make([]VariableSchema, 0, len(d.vars)),
	}
	for _, dim := range d.dims {
		s.Dims[dim.Name] = dim.Size
	}
	for _, v := range d.vars {
		dims := v.Dims
		if dims == nil {
			dims = []string{}
		}
		s.Variables = append(s.Variables, VariableSchema{
			Name:  v.Name,
			Dims:  dims,
			Size:  len(v.Values),
			Attrs: v.Attrs,
		})
	}
	return s
}
