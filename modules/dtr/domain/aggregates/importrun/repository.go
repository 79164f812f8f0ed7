package importrun

import (
	"context"

	"github.com/google/uuid"

	"github.com/iota-uz/campus-sdk/modules/dtr/domain/attendance"
)

// Repository keeps runs between operator steps. Terminal runs are small and
// left to expire with the store TTL.
type Repository interface {
	Save(ctx context.Context, run Run) error
	Get(ctx context.Context, id uuid.UUID) (Run, error)
	// Lock claims id for one action without waiting; ErrRunBusy when it is held.
	Lock(ctx context.Context, id uuid.UUID) (unlock func(), err error)
}

// Batch is what crosses the persistence boundary on submit.
type Batch struct {
	RunID   uuid.UUID
	Month   string
	Records []attendance.Record
}

// Submitter hands a batch to the persistence boundary in one call.
type Submitter interface {
	Submit(ctx context.Context, batch Batch) error
}

type SubmitterFunc func(ctx context.Context, batch Batch) error

func (f SubmitterFunc) Submit(ctx context.Context, batch Batch) error {
	return f(ctx, batch)
}
