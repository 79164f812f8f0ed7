package persistence

import (
	"context"
	"encoding/json"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/campus-sdk/modules/dtr/domain/aggregates/importrun"
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/attendance"
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/clocktime"
	"github.com/iota-uz/campus-sdk/modules/dtr/infrastructure/submission"
	"github.com/iota-uz/campus-sdk/pkg/composables"
	"github.com/iota-uz/campus-sdk/pkg/outbox"
	"github.com/iota-uz/campus-sdk/pkg/repo"
	"github.com/iota-uz/campus-sdk/pkg/serrors"
)

const (
	TopicBatchSubmitted = "dtr.batch.submitted"

	upsertRecordQuery = `INSERT INTO dtr_records (
			employee_id, month, day,
			am_arrival, am_departure, pm_arrival, pm_departure,
			undertime_hours, undertime_minutes, placeholder, run_id
		) VALUES ($1, to_date($2, 'YYYY-MM'), $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (employee_id, month, day) DO UPDATE SET
			am_arrival = EXCLUDED.am_arrival,
			am_departure = EXCLUDED.am_departure,
			pm_arrival = EXCLUDED.pm_arrival,
			pm_departure = EXCLUDED.pm_departure,
			undertime_hours = EXCLUDED.undertime_hours,
			undertime_minutes = EXCLUDED.undertime_minutes,
			placeholder = EXCLUDED.placeholder,
			run_id = EXCLUDED.run_id,
			updated_at = now()
		WHERE dtr_records.placeholder OR NOT EXCLUDED.placeholder`

	foreignKeyViolation = "23503"
)

var ErrUnknownEmployee = serrors.NewError("DTR_UNKNOWN_EMPLOYEE", "batch references an employee that does not exist", "DTR.Errors.UnknownEmployee")

// Swapped in tests that run without a database.
var (
	inTx  = composables.InTx
	useTx = composables.UseTx
)

// RecordRepository stores submitted batches in dtr_records and announces
// each one through the outbox, in the same transaction.
type RecordRepository struct {
	outbox outbox.Publisher
	table  pgx.Identifier
}

func NewRecordRepository(publisher outbox.Publisher, outboxTable pgx.Identifier) *RecordRepository {
	return &RecordRepository{outbox: publisher, table: outboxTable}
}

func (g *RecordRepository) Submit(ctx context.Context, batch importrun.Batch) error {
	payload := submission.NewBatchPayload(batch)
	payload.RunID = batch.RunID.String()
	data, err := json.Marshal(payload)
	if err != nil {
		return gerrors.Wrap(err, "failed to encode batch event")
	}

	return inTx(ctx, func(txCtx context.Context) error {
		tx, err := useTx(txCtx)
		if err != nil {
			return err
		}
		for _, r := range batch.Records {
			if err := g.upsert(txCtx, tx, batch, r); err != nil {
				return err
			}
		}
		_, err = g.outbox.Enqueue(txCtx, tx, g.table, outbox.Message{
			Topic:   TopicBatchSubmitted,
			EventID: batch.RunID,
			Payload: data,
		})
		return err
	})
}

func (g *RecordRepository) upsert(ctx context.Context, tx repo.Tx, batch importrun.Batch, r attendance.Record) error {
	_, err := tx.Exec(ctx, upsertRecordQuery,
		int64(r.EmployeeID),
		batch.Month,
		r.Day,
		nullableTime(r.AMArrival),
		nullableTime(r.AMDeparture),
		nullableTime(r.PMArrival),
		nullableTime(r.PMDeparture),
		r.UndertimeHours,
		r.UndertimeMinutes,
		r.Placeholder,
		batch.RunID,
	)
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return gerrors.Wrapf(ErrUnknownEmployee, "employee %d", r.EmployeeID)
	}
	return gerrors.Wrapf(err, "failed to upsert record for employee %d day %d", r.EmployeeID, r.Day)
}

func nullableTime(v clocktime.Value) *string {
	if v.IsAbsent() {
		return nil
	}
	s := v.String()
	return &s
}
