// Package directory provides a file-backed employee directory for offline review.
package directory

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iota-uz/campus-sdk/modules/hrm/domain/aggregates/employee"
)

type entry struct {
	ID         uint   `yaml:"id"`
	FirstName  string `yaml:"first_name"`
	LastName   string `yaml:"last_name"`
	MiddleName string `yaml:"middle_name"`
	DeviceID   *int64 `yaml:"device_id"`
}

type file struct {
	Employees []entry `yaml:"employees"`
}

// Static is an immutable, in-memory employee list.
type Static struct {
	employees []employee.Employee
}

func Load(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read employee directory: %w", err)
	}
	return Parse(data)
}

// Parse decodes a document of the form:
//
//	employees:
//	  - id: 58
//	    first_name: Ana
//	    last_name: Reyes
//	    device_id: 4570035
func Parse(data []byte) (*Static, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode employee directory: %w", err)
	}

	seen := make(map[uint]struct{}, len(f.Employees))
	out := make([]employee.Employee, 0, len(f.Employees))
	for i, e := range f.Employees {
		if e.ID == 0 {
			return nil, fmt.Errorf("employee directory entry %d: id is required", i+1)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("employee directory entry %d: duplicate id %d", i+1, e.ID)
		}
		seen[e.ID] = struct{}{}
		out = append(out, employee.Hydrate(e.ID, e.FirstName, e.LastName, e.MiddleName, e.DeviceID, time.Time{}, time.Time{}))
	}
	return &Static{employees: out}, nil
}

func (s *Static) List(ctx context.Context) ([]employee.Employee, error) {
	out := make([]employee.Employee, len(s.employees))
	copy(out, s.employees)
	return out, nil
}
