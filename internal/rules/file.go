package rules

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/goccy/go-yaml"
)

// Decode parses a flat YAML (or JSON) rule map into a RuleSet.
func Decode(data []byte) (*RuleSet, error) {
	var m map[string]model.Rule
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	return FromMap(m)
}

// Encode renders the rule set as a flat YAML map, defaults first.
func Encode(rs *RuleSet) ([]byte, error) {
	items := make(yaml.MapSlice, 0, rs.Len())
	for _, key := range rs.Keys() {
		rule, _ := rs.Get(key)
		items = append(items, yaml.MapItem{Key: key, Value: rule})
	}
	data, err := yaml.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rules: %w", err)
	}
	return data, nil
}

// LoadFile reads a rule file.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	rs, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// SaveFile writes the rule set to path, creating parent directories.
func SaveFile(path string, rs *RuleSet) error {
	data, err := Encode(rs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create rule directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write rule file: %w", err)
	}
	return nil
}
