package employee

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmployee_FullName(t *testing.T) {
	e := New("  Maria ", "Santos", "Cruz", nil)
	assert.Equal(t, "Maria Santos", e.FullName())
	assert.Equal(t, "Cruz", e.MiddleName())
	assert.False(t, e.IsZero())
}

func TestEmployee_WithDeviceID(t *testing.T) {
	id := int64(4570035)
	e := Hydrate(58, "Ana", "Reyes", "", nil, time.Time{}, time.Time{})
	withDevice := e.WithDeviceID(&id)

	assert.Nil(t, e.DeviceID(), "original is not mutated")
	if assert.NotNil(t, withDevice.DeviceID()) {
		assert.Equal(t, id, *withDevice.DeviceID())
	}
	assert.Equal(t, uint(58), withDevice.ID())
}

func TestCreateDTO_Ok(t *testing.T) {
	d := &CreateDTO{FirstName: " ", LastName: "Reyes"}
	errs, ok := d.Ok()
	assert.False(t, ok)
	assert.Equal(t, "required", errs["FirstName"])

	neg := int64(-4)
	d = &CreateDTO{FirstName: "Ana", LastName: "Reyes", DeviceID: &neg}
	errs, ok = d.Ok()
	assert.False(t, ok)
	assert.Equal(t, "gt", errs["DeviceID"])

	d = &CreateDTO{FirstName: "Ana ", LastName: "Reyes"}
	_, ok = d.Ok()
	assert.True(t, ok)
	assert.Equal(t, "Ana Reyes", d.ToEntity().FullName())
}
