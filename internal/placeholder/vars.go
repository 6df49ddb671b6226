// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package placeholder

import (
	"fmt"
	"sort"
	"strings"
)

// Merge returns a new map holding base overlaid with overrides.
func Merge(base, overrides Vars) Vars {
	out := make(Vars, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Keys returns the sorted names in vars.
func (v Vars) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseAssignments parses KEY=VALUE pairs as given on the command line.
// The value may be empty; the key must be a valid placeholder name.
func ParseAssignments(pairs []string) (Vars, error) {
	out := make(Vars, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid assignment %q: expected KEY=VALUE", p)
		}
		key = strings.TrimSpace(key)
		if !ValidName(key) {
			return nil, fmt.Errorf("invalid placeholder name %q", key)
		}
		out[key] = value
	}
	return out, nil
}
