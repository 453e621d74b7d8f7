// Package descriptor holds the declarative records configuration produces:
// how to obtain each dataset and which plugins to build.
package descriptor

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/krisalay/dataset-host/expiration"
	"github.com/krisalay/dataset-host/loader"
	"github.com/krisalay/dataset-host/types"
)

var ErrInvalidDescriptor = errors.New("descriptor: invalid")
var ErrUnresolvableLoader = errors.New("descriptor: unresolvable loader")

/*
Dataset describes how to obtain one dataset.

Loader is the configured reference; LoadFunc is what it resolved to. Code
that builds descriptors in-process may set LoadFunc directly and leave Loader
empty.
*/
type Dataset struct {
	ID          string         `yaml:"id" json:"id"`
	Title       string         `yaml:"title" json:"title"`
	Description string         `yaml:"description" json:"description"`
	Loader      string         `yaml:"loader" json:"loader"`
	Args        []any          `yaml:"args" json:"args"`
	Kwargs      map[string]any `yaml:"kwargs" json:"kwargs"`

	// InvalidateAfter is in seconds. Nil means the dataset never expires.
	InvalidateAfter *int `yaml:"invalidate_after" json:"invalidate_after"`

	SkipInitialLoad bool `yaml:"skip_initial_load" json:"skip_initial_load"`

	LoadFunc loader.Func `yaml:"-" json:"-"`
}

func (d *Dataset) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: dataset must be a mapping", ErrInvalidDescriptor, node.Line)
	}

	raw := struct {
		ID              string         `yaml:"id"`
		Title           string         `yaml:"title"`
		Description     string         `yaml:"description"`
		Loader          string         `yaml:"loader"`
		Args            []any          `yaml:"args"`
		Kwargs          map[string]any `yaml:"kwargs"`
		InvalidateAfter *int           `yaml:"invalidate_after"`
		SkipInitialLoad bool           `yaml:"skip_initial_load"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}

	*d = Dataset{
		ID:              raw.ID,
		Title:           raw.Title,
		Description:     raw.Description,
		Loader:          raw.Loader,
		Args:            raw.Args,
		Kwargs:          raw.Kwargs,
		InvalidateAfter: raw.InvalidateAfter,
		SkipInitialLoad: raw.SkipInitialLoad,
	}
	return nil
}

// Validate checks the fields that do not depend on the loader registry.
func (d *Dataset) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: dataset id is empty", ErrInvalidDescriptor)
	}
	if d.InvalidateAfter != nil && *d.InvalidateAfter < 0 {
		return fmt.Errorf("%w: %s: invalidate_after is negative: %d", ErrInvalidDescriptor, d.ID, *d.InvalidateAfter)
	}
	if d.Loader == "" && d.LoadFunc == nil {
		return fmt.Errorf("%w: %s: no loader", ErrInvalidDescriptor, d.ID)
	}
	return nil
}

// Resolve validates d and binds its loader reference against reg.
func (d *Dataset) Resolve(reg *loader.Registry) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.LoadFunc != nil {
		return nil
	}
	fn, ok := reg.Lookup(d.Loader)
	if !ok {
		return fmt.Errorf("%w: %s: %q", ErrUnresolvableLoader, d.ID, d.Loader)
	}
	d.LoadFunc = fn
	return nil
}

// Load returns the cache-facing loader: LoadFunc with this descriptor's arguments.
func (d *Dataset) Load() types.Loader {
	return loader.Bind(d.LoadFunc, d.Args, d.Kwargs)
}

// Expiration returns the strategy matching invalidate_after.
func (d *Dataset) Expiration() expiration.Strategy {
	if d.InvalidateAfter == nil {
		return expiration.For(nil)
	}
	ttl := time.Duration(*d.InvalidateAfter) * time.Second
	return expiration.For(&ttl)
}
