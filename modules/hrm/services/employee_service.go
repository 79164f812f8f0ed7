package services

import (
	"context"
	"errors"

	"github.com/iota-uz/campus-sdk/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/campus-sdk/pkg/composables"
	"github.com/iota-uz/campus-sdk/pkg/eventbus"
)

// inTx is swapped in tests that run without a database.
var inTx = composables.InTx

type EmployeeService struct {
	repo      employee.Repository
	publisher eventbus.EventBus
}

func NewEmployeeService(repo employee.Repository, publisher eventbus.EventBus) *EmployeeService {
	return &EmployeeService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *EmployeeService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *EmployeeService) GetAll(ctx context.Context) ([]employee.Employee, error) {
	return s.repo.GetAll(ctx)
}

// List makes EmployeeService usable as the employee directory of an import run.
func (s *EmployeeService) List(ctx context.Context) ([]employee.Employee, error) {
	return s.GetAll(ctx)
}

func (s *EmployeeService) GetByID(ctx context.Context, id uint) (employee.Employee, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *EmployeeService) Create(ctx context.Context, data *employee.CreateDTO) (employee.Employee, error) {
	if _, ok := data.Ok(); !ok {
		return employee.Employee{}, employee.ErrInvalidPayload
	}
	var created employee.Employee
	err := inTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Create(txCtx, data.ToEntity())
		return err
	})
	if err != nil {
		return employee.Employee{}, err
	}
	s.publisher.Publish(employee.NewCreatedEvent(created))
	return created, nil
}

// AssignDeviceID links a biometric device identifier to an employee.
// A nil deviceID clears the link.
func (s *EmployeeService) AssignDeviceID(ctx context.Context, id uint, deviceID *int64) error {
	if deviceID != nil && *deviceID <= 0 {
		return employee.ErrInvalidPayload
	}
	var previous *int64
	err := inTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		previous = current.DeviceID()
		if deviceID != nil {
			holder, err := s.repo.GetByDeviceID(txCtx, *deviceID)
			switch {
			case err == nil && holder.ID() != id:
				return employee.ErrDeviceIDTaken
			case err != nil && !errors.Is(err, employee.ErrNotFound):
				return err
			}
		}
		return s.repo.UpdateDeviceID(txCtx, id, deviceID)
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(employee.NewDeviceAssignedEvent(id, previous, deviceID))
	return nil
}
