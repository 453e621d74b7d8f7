package config

import (
	"strings"

	"gopkg.in/yaml.v3"
)

/*
Merge lays src over dst and returns the result.

Mappings merge key by key, recursively; keys match case-insensitively and keep
dst's spelling and position, new keys are appended. Anything else in src
replaces what dst had. dst may be modified.
*/
func Merge(dst, src *yaml.Node) *yaml.Node {
	if src == nil {
		return dst
	}
	if dst == nil || dst.Kind != yaml.MappingNode || src.Kind != yaml.MappingNode {
		return src
	}

	for i := 0; i+1 < len(src.Content); i += 2 {
		key, val := src.Content[i], src.Content[i+1]
		if j := findKey(dst, key.Value); j >= 0 {
			dst.Content[j+1] = Merge(dst.Content[j+1], val)
		} else {
			dst.Content = append(dst.Content, key, val)
		}
	}
	return dst
}

func findKey(m *yaml.Node, key string) int {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if strings.EqualFold(m.Content[i].Value, key) {
			return i
		}
	}
	return -1
}
