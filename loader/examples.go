package loader

import (
	"context"
	"fmt"

	"github.com/krisalay/dataset-host/dataset"
)

// Simple returns a fixed dataset: count = [1, 2, 3] along x and a scalar of 1.
func Simple(context.Context, []any, map[string]any) (any, error) {
	d := dataset.New(nil)
	if err := d.AddVariable(dataset.Variable{Name: "count", Dims: []string{"x"}, Values: []any{1, 2, 3}}); err != nil {
		return nil, err
	}
	if err := d.AddVariable(dataset.Variable{Name: "scalar", Values: []any{1}}); err != nil {
		return nil, err
	}
	return d, nil
}

// Kwargs returns a dataset with a single variable along x, named by varname and
// holding values.
func Kwargs(_ context.Context, args []any, kwargs map[string]any) (any, error) {
	name, err := stringArg(args, kwargs, 0, "varname")
	if err != nil {
		return nil, err
	}

	raw, _ := arg(args, kwargs, 1, "values")
	var values []any
	switch v := raw.(type) {
	case nil:
	case []any:
		values = v
	default:
		return nil, fmt.Errorf("%w: values must be a list, got %T", ErrBadArgument, raw)
	}

	d := dataset.New(nil)
	if err := d.AddVariable(dataset.Variable{Name: name, Dims: []string{"x"}, Values: values}); err != nil {
		return nil, err
	}
	return d, nil
}
