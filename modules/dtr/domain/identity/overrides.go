package identity

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OverrideTable pins device ids to employee ids ahead of any other lookup.
type OverrideTable map[int64]uint

type overrideFile struct {
	Overrides []struct {
		DeviceID   int64  `yaml:"device_id"`
		EmployeeID uint   `yaml:"employee_id"`
		Note       string `yaml:"note"`
	} `yaml:"overrides"`
}

// LoadOverrides reads an override table from a YAML file. A missing file
// yields an empty table.
func LoadOverrides(path string) (OverrideTable, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return OverrideTable{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	return ParseOverrides(data)
}

func ParseOverrides(data []byte) (OverrideTable, error) {
	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}
	table := make(OverrideTable, len(f.Overrides))
	for i, o := range f.Overrides {
		if o.DeviceID <= 0 || o.EmployeeID == 0 {
			return nil, fmt.Errorf("parse overrides: entry %d: device_id and employee_id must be positive", i)
		}
		if prev, ok := table[o.DeviceID]; ok {
			return nil, fmt.Errorf("parse overrides: device_id %d mapped twice (%d, %d)", o.DeviceID, prev, o.EmployeeID)
		}
		table[o.DeviceID] = o.EmployeeID
	}
	return table, nil
}
