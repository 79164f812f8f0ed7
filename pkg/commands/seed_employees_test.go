package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/campus-sdk/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/campus-sdk/modules/hrm/infrastructure/directory"
)

type fakeCreator struct {
	devices map[int64]bool
	failOn  string
	created []employee.CreateDTO
}

func (f *fakeCreator) Create(ctx context.Context, data *employee.CreateDTO) (employee.Employee, error) {
	if data.LastName == f.failOn {
		return employee.Employee{}, errors.New("connection reset")
	}
	if data.DeviceID != nil {
		if f.devices[*data.DeviceID] {
			return employee.Employee{}, employee.ErrDeviceIDTaken
		}
		f.devices[*data.DeviceID] = true
	}
	f.created = append(f.created, *data)
	return data.ToEntity(), nil
}

const seedYAML = `
employees:
  - id: 1
    first_name: Ana
    last_name: Reyes
    device_id: 1203
  - id: 2
    first_name: Ben
    last_name: Santos
    device_id: 1203
  - id: 3
    first_name: Carla
    last_name: Diaz
    middle_name: Mae
`

func TestSeedEmployees(t *testing.T) {
	staff, err := directory.Parse([]byte(seedYAML))
	require.NoError(t, err)
	list, err := staff.List(context.Background())
	require.NoError(t, err)

	creator := &fakeCreator{devices: map[int64]bool{}}
	res, err := seedEmployees(context.Background(), creator, list)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Created: 2, Skipped: 1}, res)
	require.Len(t, creator.created, 2)
	assert.Equal(t, "Mae", creator.created[1].MiddleName)

	creator = &fakeCreator{devices: map[int64]bool{}, failOn: "Santos"}
	res, err = seedEmployees(context.Background(), creator, list)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ben Santos")
	assert.Equal(t, 1, res.Created)
}

func TestUtilityCommands(t *testing.T) {
	cmds := NewUtilityCommands()
	require.Len(t, cmds, 2)
	assert.Equal(t, "migrate", cmds[0].Name())
	assert.Equal(t, "seed-employees", cmds[1].Name())
	assert.Error(t, cmds[0].Args(cmds[0], nil))
}
