package employee

import (
	"strings"
	"time"
)

type Employee struct {
	id         uint
	firstName  string
	lastName   string
	middleName string
	deviceID   *int64
	createdAt  time.Time
	updatedAt  time.Time
}

func New(firstName, lastName, middleName string, deviceID *int64) Employee {
	return Employee{
		firstName:  strings.TrimSpace(firstName),
		lastName:   strings.TrimSpace(lastName),
		middleName: strings.TrimSpace(middleName),
		deviceID:   deviceID,
	}
}

func Hydrate(
	id uint,
	firstName, lastName, middleName string,
	deviceID *int64,
	createdAt, updatedAt time.Time,
) Employee {
	e := New(firstName, lastName, middleName, deviceID)
	e.id = id
	e.createdAt = createdAt
	e.updatedAt = updatedAt
	return e
}

func (e Employee) ID() uint             { return e.id }
func (e Employee) FirstName() string    { return e.firstName }
func (e Employee) LastName() string     { return e.lastName }
func (e Employee) MiddleName() string   { return e.middleName }
func (e Employee) DeviceID() *int64     { return e.deviceID }
func (e Employee) CreatedAt() time.Time { return e.createdAt }
func (e Employee) UpdatedAt() time.Time { return e.updatedAt }
func (e Employee) IsZero() bool         { return e.id == 0 && e.firstName == "" && e.lastName == "" }

// FullName is "First Last"; the middle name is not part of it.
func (e Employee) FullName() string {
	return strings.TrimSpace(e.firstName + " " + e.lastName)
}

func (e Employee) WithDeviceID(deviceID *int64) Employee {
	e.deviceID = deviceID
	return e
}
