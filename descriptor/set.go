package descriptor

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/krisalay/dataset-host/loader"
)

/*
Set is an ordered collection of dataset descriptors keyed by id.

Putting a descriptor whose id is already present replaces it in place, so the
last descriptor wins but the id keeps its first position.
*/
type Set struct {
	order []string
	byID  map[string]*Dataset
}

func NewSet(ds ...*Dataset) *Set {
	s := &Set{byID: map[string]*Dataset{}}
	for _, d := range ds {
		s.Put(d)
	}
	return s
}

func (s *Set) Put(d *Dataset) {
	if s.byID == nil {
		s.byID = map[string]*Dataset{}
	}
	if _, ok := s.byID[d.ID]; !ok {
		s.order = append(s.order, d.ID)
	}
	s.byID[d.ID] = d
}

func (s *Set) Get(id string) (*Dataset, bool) {
	if s == nil {
		return nil, false
	}
	d, ok := s.byID[id]
	return d, ok
}

// IDs returns ids in insertion order.
func (s *Set) IDs() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// All returns descriptors in insertion order.
func (s *Set) All() []*Dataset {
	if s == nil {
		return nil
	}
	out := make([]*Dataset, len(s.order))
	for i, id := range s.order {
		out[i] = s.byID[id]
	}
	return out
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Merge puts a copy of every descriptor of other into s, in other's order.
// Resolving s afterwards leaves other untouched.
func (s *Set) Merge(other *Set) {
	for _, d := range other.All() {
		c := *d
		s.Put(&c)
	}
}

// Resolve binds every descriptor's loader. The first failure is returned.
func (s *Set) Resolve(reg *loader.Registry) error {
	for _, d := range s.All() {
		if err := d.Resolve(reg); err != nil {
			return err
		}
	}
	return nil
}

/*
UnmarshalYAML reads a mapping of key → descriptor. A descriptor without an id
takes its key as id.
*/
func (s *Set) UnmarshalYAML(node *yaml.Node) error {
	*s = Set{byID: map[string]*Dataset{}}

	switch node.Kind {
	case 0:
		return nil
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return nil
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			d := &Dataset{}
			if err := val.Decode(d); err != nil {
				return fmt.Errorf("datasets_config.%s: %w", key.Value, err)
			}
			if d.ID == "" {
				d.ID = key.Value
			}
			s.Put(d)
		}
		return nil
	}
	return fmt.Errorf("%w: line %d: datasets_config must be a mapping", ErrInvalidDescriptor, node.Line)
}
