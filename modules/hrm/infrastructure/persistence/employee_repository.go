package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/campus-sdk/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/campus-sdk/pkg/composables"
)

const (
	selectEmployeesQuery = `SELECT id, first_name, last_name, middle_name, device_id, created_at, updated_at FROM employees`
	countEmployeesQuery  = `SELECT COUNT(*) FROM employees`
	insertEmployeeQuery  = `INSERT INTO employees (first_name, last_name, middle_name, device_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	updateDeviceIDQuery = `UPDATE employees SET device_id = $2, updated_at = now() WHERE id = $1`

	uniqueViolation = "23505"
)

type EmployeeRepository struct{}

func NewEmployeeRepository() employee.Repository {
	return &EmployeeRepository{}
}

func (g *EmployeeRepository) GetAll(ctx context.Context) ([]employee.Employee, error) {
	return g.queryEmployees(ctx, selectEmployeesQuery+" ORDER BY id")
}

func (g *EmployeeRepository) GetByID(ctx context.Context, id uint) (employee.Employee, error) {
	return g.queryOne(ctx, selectEmployeesQuery+" WHERE id = $1", int64(id))
}

func (g *EmployeeRepository) GetByDeviceID(ctx context.Context, deviceID int64) (employee.Employee, error) {
	return g.queryOne(ctx, selectEmployeesQuery+" WHERE device_id = $1", deviceID)
}

func (g *EmployeeRepository) Count(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := tx.QueryRow(ctx, countEmployeesQuery).Scan(&count); err != nil {
		return 0, gerrors.Wrap(err, "failed to count employees")
	}
	return count, nil
}

func (g *EmployeeRepository) Create(ctx context.Context, data employee.Employee) (employee.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return employee.Employee{}, err
	}

	var (
		id        int64
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err = tx.QueryRow(ctx, insertEmployeeQuery,
		data.FirstName(),
		data.LastName(),
		nullableString(data.MiddleName()),
		data.DeviceID(),
	).Scan(&id, &createdAt, &updatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return employee.Employee{}, employee.ErrDeviceIDTaken
		}
		return employee.Employee{}, gerrors.Wrap(err, "failed to create employee")
	}

	return employee.Hydrate(
		uint(id),
		data.FirstName(), data.LastName(), data.MiddleName(),
		data.DeviceID(),
		createdAt.Time, updatedAt.Time,
	), nil
}

func (g *EmployeeRepository) UpdateDeviceID(ctx context.Context, id uint, deviceID *int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, updateDeviceIDQuery, int64(id), deviceID)
	if err != nil {
		if isUniqueViolation(err) {
			return employee.ErrDeviceIDTaken
		}
		return gerrors.Wrap(err, "failed to update employee device id")
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrNotFound
	}
	return nil
}

func (g *EmployeeRepository) queryOne(ctx context.Context, query string, args ...any) (employee.Employee, error) {
	employees, err := g.queryEmployees(ctx, query, args...)
	if err != nil {
		return employee.Employee{}, err
	}
	if len(employees) == 0 {
		return employee.Employee{}, employee.ErrNotFound
	}
	return employees[0], nil
}

func (g *EmployeeRepository) queryEmployees(ctx context.Context, query string, args ...any) ([]employee.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to query employees")
	}
	out, err := pgx.CollectRows(rows, scanEmployee)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to scan employees")
	}
	return out, nil
}

func scanEmployee(row pgx.CollectableRow) (employee.Employee, error) {
	var (
		id         int64
		firstName  string
		lastName   string
		middleName pgtype.Text
		deviceID   pgtype.Int8
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)
	if err := row.Scan(&id, &firstName, &lastName, &middleName, &deviceID, &createdAt, &updatedAt); err != nil {
		return employee.Employee{}, err
	}
	var device *int64
	if deviceID.Valid {
		v := deviceID.Int64
		device = &v
	}
	return employee.Hydrate(uint(id), firstName, lastName, middleName.String, device, createdAt.Time, updatedAt.Time), nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
