package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

/*
ReadFile parses a config file into a YAML mapping node. The format follows the
extension: .toml is TOML, anything else is read as YAML (which covers JSON).

TOML tables are decoded through a Go map, so their keys come back sorted.
*/
func ReadFile(path string) (*yaml.Node, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	var node *yaml.Node
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		node, err = parseTOML(raw)
	default:
		node, err = parseYAML(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return node, nil
}

func parseYAML(raw []byte) (*yaml.Node, error) {
	doc := &yaml.Node{}
	if err := yaml.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return mapping(doc)
}

func parseTOML(raw []byte) (*yaml.Node, error) {
	m := map[string]any{}
	if err := toml.NewDecoder(bytes.NewReader(raw)).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	node := &yaml.Node{}
	if err := node.Encode(m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return mapping(node)
}

// mapping unwraps a document node and checks that it holds a mapping.
// An empty document is an empty mapping.
func mapping(node *yaml.Node) (*yaml.Node, error) {
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return emptyMapping(), nil
		}
		node = node.Content[0]
	}
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null") {
		return emptyMapping(), nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrInvalidConfig)
	}
	return node, nil
}

func emptyMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func parseEnviron(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[k] = v
	}
	return env
}

// readDotEnv reads the listed .env files, or ./.env when the list is empty.
// Files that do not exist are skipped. Nothing is exported to the process environment.
func readDotEnv(list string) (map[string]string, error) {
	var files []string
	if list == "" {
		files = []string{".env"}
	} else {
		for _, f := range strings.Split(list, ",") {
			if f = strings.TrimSpace(f); f != "" {
				files = append(files, f)
			}
		}
	}

	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if len(existing) == 0 {
		return map[string]string{}, nil
	}

	vars, err := godotenv.Read(existing...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return vars, nil
}

/*
EnvNode turns XPUB_ variables into a mapping node.

XPUB_DATASETS_CONFIG__DS1__LOADER=examples.simple becomes
{datasets_config: {ds1: {loader: examples.simple}}}. Names are case-insensitive
and lowercased. A value starting with '{' or '[' is parsed as YAML/JSON; any
other value is a plain scalar resolved the way YAML resolves it.

Variables are applied in name order, so a whole-object variable is overridden
by the nested variables below it.
*/
func EnvNode(vars map[string]string) (*yaml.Node, error) {
	names := make([]string, 0, len(vars))
	for k := range vars {
		upper := strings.ToUpper(k)
		if !strings.HasPrefix(upper, EnvPrefix) || upper == EnvConfigFile || upper == EnvEnvFiles {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)

	root := emptyMapping()
	for _, name := range names {
		path := strings.Split(strings.ToLower(name[len(EnvPrefix):]), NestedDelimiter)
		for _, seg := range path {
			if seg == "" {
				return nil, fmt.Errorf("%w: malformed variable name %s", ErrInvalidConfig, name)
			}
		}

		value, err := envValue(vars[name])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err)
		}

		node := value
		for i := len(path) - 1; i >= 0; i-- {
			m := emptyMapping()
			m.Content = []*yaml.Node{scalar(path[i]), node}
			node = m
		}
		root = Merge(root, node)
	}
	return root, nil
}

func envValue(v string) (*yaml.Node, error) {
	trimmed := strings.TrimSpace(v)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		doc := &yaml.Node{}
		if err := yaml.Unmarshal([]byte(trimmed), doc); err != nil {
			return nil, err
		}
		return doc.Content[0], nil
	}
	return scalar(v), nil
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
}
