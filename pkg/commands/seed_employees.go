package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/campus-sdk/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/campus-sdk/modules/hrm/infrastructure/directory"
	"github.com/iota-uz/campus-sdk/modules/hrm/infrastructure/persistence"
	"github.com/iota-uz/campus-sdk/modules/hrm/services"
	"github.com/iota-uz/campus-sdk/pkg/composables"
	"github.com/iota-uz/campus-sdk/pkg/configuration"
	"github.com/iota-uz/campus-sdk/pkg/eventbus"
)

type SeedResult struct {
	Created int
	Skipped int
}

type employeeCreator interface {
	Create(ctx context.Context, data *employee.CreateDTO) (employee.Employee, error)
}

// SeedEmployees creates the staff listed in path. Database ids are assigned
// on insert; ids in the file are only used to detect duplicates.
func SeedEmployees(ctx context.Context, path string) (SeedResult, error) {
	staff, err := directory.Load(path)
	if err != nil {
		return SeedResult{}, err
	}
	list, err := staff.List(ctx)
	if err != nil {
		return SeedResult{}, err
	}

	conf := configuration.Use()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return SeedResult{}, fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	svc := services.NewEmployeeService(persistence.NewEmployeeRepository(), eventbus.NewEventPublisher(conf.Logger()))
	return seedEmployees(composables.WithPool(ctx, pool), svc, list)
}

func seedEmployees(ctx context.Context, creator employeeCreator, staff []employee.Employee) (SeedResult, error) {
	var res SeedResult
	for _, e := range staff {
		_, err := creator.Create(ctx, &employee.CreateDTO{
			FirstName:  e.FirstName(),
			LastName:   e.LastName(),
			MiddleName: e.MiddleName(),
			DeviceID:   e.DeviceID(),
		})
		switch {
		case err == nil:
			res.Created++
		case errors.Is(err, employee.ErrDeviceIDTaken):
			res.Skipped++
		default:
			return res, fmt.Errorf("seed %s %s: %w", e.FirstName(), e.LastName(), err)
		}
	}
	return res, nil
}
