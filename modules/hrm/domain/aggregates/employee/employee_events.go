package employee

import "time"

type CreatedEvent struct {
	Result     Employee
	OccurredAt time.Time
}

type DeviceAssignedEvent struct {
	EmployeeID uint
	Previous   *int64
	Current    *int64
	OccurredAt time.Time
}

func NewCreatedEvent(result Employee) *CreatedEvent {
	return &CreatedEvent{Result: result, OccurredAt: time.Now()}
}

func NewDeviceAssignedEvent(id uint, previous, current *int64) *DeviceAssignedEvent {
	return &DeviceAssignedEvent{EmployeeID: id, Previous: previous, Current: current, OccurredAt: time.Now()}
}
