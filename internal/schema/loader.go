package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"tenantetl/internal/errs"
)

// LoadTableSchema decodes one schemas/{tables,views,matviews}/NN_<Name>.yaml
// file. The DDL text itself lives in the sibling .ddl file of the same base
// name, per the configuration layout in spec.md §6.1.
func LoadTableSchema(yamlPath string) (TableSchema, error) {
	var ts TableSchema
	b, err := os.ReadFile(yamlPath)
	if err != nil {
		return ts, errs.New(errs.KindConfig, errs.ReasonParseError, "", yamlPath, err)
	}
	if err := yaml.Unmarshal(b, &ts); err != nil {
		return ts, errs.New(errs.KindConfig, errs.ReasonParseError, "", yamlPath, err)
	}
	ddlPath := strings.TrimSuffix(yamlPath, filepath.Ext(yamlPath)) + ".ddl"
	if ddl, err := os.ReadFile(ddlPath); err == nil {
		ts.DDL = string(ddl)
	}
	return ts, nil
}

// LoadColumnMapping decodes one column_mappings/NN_<Name>.yaml file.
func LoadColumnMapping(path string) (ColumnMapping, error) {
	var cm ColumnMapping
	b, err := os.ReadFile(path)
	if err != nil {
		return cm, errs.New(errs.KindConfig, errs.ReasonParseError, "", path, err)
	}
	if err := yaml.Unmarshal(b, &cm); err != nil {
		return cm, errs.New(errs.KindConfig, errs.ReasonParseError, "", path, err)
	}
	return cm, nil
}

// LoadComputedColumns decodes computed_columns.yaml, a list of per-table
// rule sets, and validates each table's rule graph is acyclic (spec.md §4.4,
// §8 "if the dependency graph has a cycle, configuration load fails before
// any file I/O").
func LoadComputedColumns(path string) ([]ComputedColumnSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.New(errs.KindConfig, errs.ReasonParseError, "", path, err)
	}
	var sets []ComputedColumnSet
	if err := yaml.Unmarshal(b, &sets); err != nil {
		return nil, errs.New(errs.KindConfig, errs.ReasonParseError, "", path, err)
	}
	for _, s := range sets {
		if err := CheckAcyclic(s.Rules); err != nil {
			return nil, errs.New(errs.KindTransform, errs.ReasonComputedRuleCycle, s.Table, fmt.Sprintf("%v", err), nil)
		}
	}
	return sets, nil
}
