package schema

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"tenantetl/internal/errs"
)

// SeedMapping resolves a seed CSV's base file name to the destination table
// name it loads into (spec.md §6.1's "seeds/*.csv + SEED_MAPPING.*" layout).
// A csv whose base name is absent from the mapping loads into a table of
// the same name — SEED_MAPPING only needs entries where they differ.
type SeedMapping map[string]string

// LoadSeedMapping decodes SEED_MAPPING.yaml from dir. A missing file yields
// an empty mapping rather than an error, since most tenants don't need one.
func LoadSeedMapping(dir string) (SeedMapping, error) {
	path := filepath.Join(dir, "SEED_MAPPING.yaml")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return SeedMapping{}, nil
		}
		return nil, errs.New(errs.KindConfig, errs.ReasonParseError, "", path, err)
	}
	var m SeedMapping
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, errs.New(errs.KindConfig, errs.ReasonParseError, "", path, err)
	}
	if m == nil {
		m = SeedMapping{}
	}
	return m, nil
}

// TableFor resolves csvPath's destination table name.
func (m SeedMapping) TableFor(csvPath string) string {
	base := strings.TrimSuffix(filepath.Base(csvPath), filepath.Ext(csvPath))
	if t, ok := m[base]; ok {
		return t
	}
	return base
}
