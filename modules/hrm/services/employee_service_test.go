package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/campus-sdk/modules/hrm/domain/aggregates/employee"
)

type mockEmployeeRepo struct {
	byID    map[uint]employee.Employee
	nextID  uint
	called  bool
	failErr error
}

func newMockRepo(employees ...employee.Employee) *mockEmployeeRepo {
	m := &mockEmployeeRepo{byID: map[uint]employee.Employee{}, nextID: 100}
	for _, e := range employees {
		m.byID[e.ID()] = e
	}
	return m
}

func (m *mockEmployeeRepo) Count(ctx context.Context) (int64, error) {
	m.called = true
	return int64(len(m.byID)), nil
}

func (m *mockEmployeeRepo) GetAll(ctx context.Context) ([]employee.Employee, error) {
	m.called = true
	out := make([]employee.Employee, 0, len(m.byID))
	for _, e := range m.byID {
		out = append(out, e)
	}
	return out, nil
}

func (m *mockEmployeeRepo) GetByID(ctx context.Context, id uint) (employee.Employee, error) {
	m.called = true
	e, ok := m.byID[id]
	if !ok {
		return employee.Employee{}, employee.ErrNotFound
	}
	return e, nil
}

func (m *mockEmployeeRepo) GetByDeviceID(ctx context.Context, deviceID int64) (employee.Employee, error) {
	m.called = true
	for _, e := range m.byID {
		if e.DeviceID() != nil && *e.DeviceID() == deviceID {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrNotFound
}

func (m *mockEmployeeRepo) Create(ctx context.Context, data employee.Employee) (employee.Employee, error) {
	m.called = true
	if m.failErr != nil {
		return employee.Employee{}, m.failErr
	}
	m.nextID++
	created := employee.Hydrate(m.nextID, data.FirstName(), data.LastName(), data.MiddleName(), data.DeviceID(), time.Now(), time.Now())
	m.byID[created.ID()] = created
	return created, nil
}

func (m *mockEmployeeRepo) UpdateDeviceID(ctx context.Context, id uint, deviceID *int64) error {
	m.called = true
	e, ok := m.byID[id]
	if !ok {
		return employee.ErrNotFound
	}
	m.byID[id] = e.WithDeviceID(deviceID)
	return nil
}

type stubPublisher struct {
	published []any
}

func (s *stubPublisher) Publish(args ...any)        { s.published = append(s.published, args...) }
func (s *stubPublisher) PublishE(args ...any) error { s.Publish(args...); return nil }
func (s *stubPublisher) Subscribe(handler any)      {}
func (s *stubPublisher) Unsubscribe(handler any)    {}
func (s *stubPublisher) Clear()                     {}
func (s *stubPublisher) SubscribersCount() int      { return 0 }

func withoutDB(t *testing.T) {
	t.Helper()
	orig := inTx
	inTx = func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }
	t.Cleanup(func() { inTx = orig })
}

func ptr(v int64) *int64 { return &v }

func TestEmployeeService_CreateValidates(t *testing.T) {
	withoutDB(t)
	repo := newMockRepo()
	svc := NewEmployeeService(repo, &stubPublisher{})

	_, err := svc.Create(context.Background(), &employee.CreateDTO{LastName: "Reyes"})
	require.ErrorIs(t, err, employee.ErrInvalidPayload)
	require.False(t, repo.called, "repository should not be called for invalid payloads")
}

func TestEmployeeService_CreatePublishes(t *testing.T) {
	withoutDB(t)
	pub := &stubPublisher{}
	svc := NewEmployeeService(newMockRepo(), pub)

	created, err := svc.Create(context.Background(), &employee.CreateDTO{FirstName: "Ana", LastName: "Reyes"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID())

	require.Len(t, pub.published, 1)
	ev, ok := pub.published[0].(*employee.CreatedEvent)
	require.True(t, ok)
	assert.Equal(t, created.ID(), ev.Result.ID())
}

func TestEmployeeService_CreateRepoError(t *testing.T) {
	withoutDB(t)
	pub := &stubPublisher{}
	repo := newMockRepo()
	repo.failErr = errors.New("db down")
	svc := NewEmployeeService(repo, pub)

	_, err := svc.Create(context.Background(), &employee.CreateDTO{FirstName: "Ana", LastName: "Reyes"})
	require.Error(t, err)
	assert.Empty(t, pub.published)
}

func TestEmployeeService_AssignDeviceID(t *testing.T) {
	withoutDB(t)
	ana := employee.Hydrate(58, "Ana", "Reyes", "", nil, time.Time{}, time.Time{})
	jose := employee.Hydrate(61, "Jose", "Cruz", "", ptr(7), time.Time{}, time.Time{})
	pub := &stubPublisher{}
	repo := newMockRepo(ana, jose)
	svc := NewEmployeeService(repo, pub)
	ctx := context.Background()

	require.NoError(t, svc.AssignDeviceID(ctx, 58, ptr(4570035)))
	got, err := svc.GetByID(ctx, 58)
	require.NoError(t, err)
	require.NotNil(t, got.DeviceID())
	assert.Equal(t, int64(4570035), *got.DeviceID())
	require.Len(t, pub.published, 1)

	err = svc.AssignDeviceID(ctx, 58, ptr(7))
	require.ErrorIs(t, err, employee.ErrDeviceIDTaken)

	err = svc.AssignDeviceID(ctx, 999, ptr(8))
	require.ErrorIs(t, err, employee.ErrNotFound)

	err = svc.AssignDeviceID(ctx, 58, ptr(0))
	require.ErrorIs(t, err, employee.ErrInvalidPayload)

	require.NoError(t, svc.AssignDeviceID(ctx, 61, ptr(7)), "re-assigning own id is allowed")
	require.NoError(t, svc.AssignDeviceID(ctx, 61, nil))
	got, _ = svc.GetByID(ctx, 61)
	assert.Nil(t, got.DeviceID())
}

func TestEmployeeService_ListAndCount(t *testing.T) {
	svc := NewEmployeeService(newMockRepo(
		employee.Hydrate(1, "A", "B", "", nil, time.Time{}, time.Time{}),
		employee.Hydrate(2, "C", "D", "", nil, time.Time{}, time.Time{}),
	), &stubPublisher{})

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
