package types

import "context"

// Loader is the contract between the cache and whatever produces a dataset.
type Loader interface {

	/*
		Load is called when the cache has no usable entry for a dataset.
		1. Cache checks memory → entry missing or expired
		2. Cache calls Load
		3. Loader reads files / queries a database / builds the value
		4. Cache stores the result together with the load start time
		5. Cache returns the value

		Load is called with the same arguments on every reload.
	*/
	Load(ctx context.Context) (any, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(ctx context.Context) (any, error)

// Load calls f(ctx).
func (f LoaderFunc) Load(ctx context.Context) (any, error) {
	return f(ctx)
}
