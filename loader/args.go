package loader

import (
	"fmt"
	"strconv"
)

// arg returns kwargs[name], falling back to args[pos] when pos >= 0.
func arg(args []any, kwargs map[string]any, pos int, name string) (any, bool) {
	if v, ok := kwargs[name]; ok {
		return v, true
	}
	if pos >= 0 && pos < len(args) {
		return args[pos], true
	}
	return nil, false
}

func stringArg(args []any, kwargs map[string]any, pos int, name string) (string, error) {
	v, ok := arg(args, kwargs, pos, name)
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrBadArgument, name, v)
	}
	return s, nil
}

func optionalString(kwargs map[string]any, name, def string) (string, error) {
	v, ok := kwargs[name]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrBadArgument, name, v)
	}
	return s, nil
}

func optionalInt(kwargs map[string]any, name string, def int) (int, error) {
	v, ok := kwargs[name]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrBadArgument, name, err)
		}
		return i, nil
	}
	return 0, fmt.Errorf("%w: %s must be an integer, got %T", ErrBadArgument, name, v)
}

// parseCell turns a text cell into an int64, a float64, a bool or leaves it as a string.
// Empty cells become nil.
func parseCell(s string) any {
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
