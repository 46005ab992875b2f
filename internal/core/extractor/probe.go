package extractor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Path addresses a value inside a decoded JSON/YAML tree.
// Numeric segments index arrays, everything else is a map key.
type Path []string

// P builds a Path from dot-separated segments. Keys containing dots
// must be appended to a Path directly instead.
func P(dotted string) Path {
	return Path(strings.Split(dotted, "."))
}

// Lookup walks the tree and returns the value at p. Missing keys,
// out-of-range indexes and explicit nulls all report false.
func (p Path) Lookup(root any) (any, bool) {
	cur := root
	for _, seg := range p {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case map[any]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
		if cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// String returns the value at p as a string, or "" when absent
func (p Path) String(root any) string {
	v, ok := p.Lookup(root)
	if !ok {
		return ""
	}
	return scalarString(v)
}

// Map returns the object at p
func (p Path) Map(root any) (map[string]any, bool) {
	v, ok := p.Lookup(root)
	if !ok {
		return nil, false
	}
	return asMap(v)
}

// Slice returns the array at p
func (p Path) Slice(root any) ([]any, bool) {
	v, ok := p.Lookup(root)
	if !ok {
		return nil, false
	}
	s, ok := v.([]any)
	return s, ok
}

// FirstString returns the first non-blank string found among paths
func FirstString(root any, paths ...Path) string {
	for _, p := range paths {
		if s := p.String(root); strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// FirstMap returns the first object found among paths together with its index
func FirstMap(root any, paths ...Path) (map[string]any, int, bool) {
	for i, p := range paths {
		if m, ok := p.Map(root); ok {
			return m, i, true
		}
	}
	return nil, -1, false
}

// Keys lists the keys of an object in sorted order, for diagnostics
func Keys(v any) []string {
	m, ok := asMap(v)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case uint64:
		return strconv.FormatUint(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return false
}
