package employee

import (
	"context"

	"github.com/iota-uz/campus-sdk/pkg/serrors"
)

var (
	ErrNotFound       = serrors.NewError("HRM_EMPLOYEE_NOT_FOUND", "employee not found", "Errors.EmployeeNotFound")
	ErrDeviceIDTaken  = serrors.NewError("HRM_DEVICE_ID_TAKEN", "device id already assigned to another employee", "Errors.DeviceIDTaken")
	ErrInvalidPayload = serrors.NewError("HRM_INVALID_PAYLOAD", "invalid employee payload", "Errors.InvalidPayload")
)

type Repository interface {
	GetAll(ctx context.Context) ([]Employee, error)
	GetByID(ctx context.Context, id uint) (Employee, error)
	GetByDeviceID(ctx context.Context, deviceID int64) (Employee, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, e Employee) (Employee, error)
	UpdateDeviceID(ctx context.Context, id uint, deviceID *int64) error
}
