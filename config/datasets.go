package config

import (
	"fmt"

	"github.com/krisalay/dataset-host/descriptor"
)

// DatasetsFile is the shape of a secondary descriptor file.
type DatasetsFile struct {
	Datasets descriptor.Set `yaml:"datasets_config"`
}

/*
ReadDatasetsFile reads the datasets_config mapping of a secondary descriptor
file. Loader references are left unresolved.
*/
func ReadDatasetsFile(path string) (*descriptor.Set, error) {
	node, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	f := DatasetsFile{}
	if err := node.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return &f.Datasets, nil
}
