// Package config implements the ConfigResolver: it loads the layered YAML
// configuration described in the specification (shared defaults, component
// defaults, shared data-quality rules, per-tenant overrides, per-tenant
// secrets) and merges them into a raw, still-untyped tree that resolver.go
// then turns into a frozen tenant.Context.
//
// The decode model here mirrors the split the teacher repo uses between a JSON-serializable Pipeline model
// (internal/config/config.go) and a separate validate.go linter: one file
// defines shape, another enforces invariants over it.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// TenantRegistryEntry is one row of configs/tenant_registry.yaml.
type TenantRegistryEntry struct {
	TenantID        string `yaml:"tenant_id"`
	TenantSlug      string `yaml:"tenant_slug"`
	Enabled         bool   `yaml:"enabled"`
	DatabaseName    string `yaml:"database_name"`
	StorageProvider string `yaml:"provider"`
	ConstantsBackend string `yaml:"backend"`
	SchedulePriority int   `yaml:"priority"`
}

// Registry is the decoded tenant_registry.yaml document.
type Registry struct {
	Tenants []TenantRegistryEntry `yaml:"tenants"`
}

// Raw is a generic YAML tree used for the deep-merge layers. It purposefully
// avoids a typed schema at this stage: shared/default_config.yaml,
// component-specific files, and per-tenant overrides may each carry only a
// subset of keys, and JSON/YAML-shaped free-form config is the norm in the
// systems this engine replaces (see SPEC_FULL.md ambient stack notes).
type Raw map[string]any

// Merge deep-merges src into dst (dst wins nothing; src overrides dst) and
// returns dst. Maps are merged key-by-key recursively; any other type
// (including lists) is replaced wholesale, matching the specification's
// merge rule: "deep merge on maps, replace on lists".
func Merge(dst, src Raw) Raw {
	if dst == nil {
		dst = Raw{}
	}
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				dst[k] = Merge(Raw(existing), Raw(sub))
				continue
			}
			if existingRaw, ok := dst[k].(Raw); ok {
				dst[k] = Merge(existingRaw, Raw(sub))
				continue
			}
			dst[k] = sub
			continue
		}
		dst[k] = v
	}
	return dst
}

// DecodeYAML decodes a YAML document into a Raw tree.
func DecodeYAML(b []byte) (Raw, error) {
	var out Raw
	if len(b) == 0 {
		return Raw{}, nil
	}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if out == nil {
		out = Raw{}
	}
	return out, nil
}

// String fetches a dotted path ("database.name") as a string, or def.
func (r Raw) String(path string, def string) string {
	v, ok := lookup(r, path)
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

// Int fetches a dotted path as an int, or def.
func (r Raw) Int(path string, def int) int {
	v, ok := lookup(r, path)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

// Bool fetches a dotted path as a bool, or def.
func (r Raw) Bool(path string, def bool) bool {
	v, ok := lookup(r, path)
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

// Sub returns the map found at a dotted path as a Raw, or an empty Raw.
func (r Raw) Sub(path string) Raw {
	v, ok := lookup(r, path)
	if !ok {
		return Raw{}
	}
	if m, ok := v.(map[string]any); ok {
		return Raw(m)
	}
	if m, ok := v.(Raw); ok {
		return m
	}
	return Raw{}
}

func lookup(r Raw, path string) (any, bool) {
	cur := any(r)
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			key := path[start:i]
			m, ok := asMap(cur)
			if !ok {
				return nil, false
			}
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
			start = i + 1
		}
	}
	return cur, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case Raw:
		return map[string]any(m), true
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}
