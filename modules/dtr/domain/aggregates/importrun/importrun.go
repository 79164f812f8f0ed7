// Package importrun holds one operator's import of a time-record file from
// upload to submission or cancellation.
package importrun

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/campus-sdk/modules/dtr/domain/attendance"
)

type Status string

const (
	Idle       Status = "idle"
	FileLoaded Status = "file_loaded"
	Parsed     Status = "parsed"
	Reviewed   Status = "reviewed"
	Submitted  Status = "submitted"
	Cancelled  Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s == Submitted || s == Cancelled
}

const MonthLayout = "2006-01"

// Run is an import in progress. Transitions return a new value; the receiver
// is left untouched.
type Run struct {
	id        uuid.UUID
	month     string
	status    Status
	fileName  string
	format    string
	source    []byte
	summary   *Summary
	batch     []attendance.Record
	submitted int
	lastError string
	createdAt time.Time
	updatedAt time.Time
}

func New(month string) (Run, error) {
	if _, err := time.Parse(MonthLayout, month); err != nil {
		return Run{}, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	now := time.Now()
	return Run{
		id:        uuid.New(),
		month:     month,
		status:    Idle,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func (r Run) ID() uuid.UUID        { return r.id }
func (r Run) Month() string        { return r.month }
func (r Run) Status() Status       { return r.status }
func (r Run) FileName() string     { return r.fileName }
func (r Run) Format() string       { return r.format }
func (r Run) Source() []byte       { return r.source }
func (r Run) LastError() string    { return r.lastError }
func (r Run) SubmittedCount() int  { return r.submitted }
func (r Run) CreatedAt() time.Time { return r.createdAt }
func (r Run) UpdatedAt() time.Time { return r.updatedAt }

// Summary is nil before parsing and after a terminal transition.
func (r Run) Summary() *Summary { return r.summary }

// Batch is the sorted list handed to the submitter, placeholders included.
func (r Run) Batch() []attendance.Record { return r.batch }

func (r Run) transition(from Status, to Status) (Run, error) {
	if r.status != from {
		return r, fmt.Errorf("%w: %s -> %s from %s", ErrInvalidTransition, from, to, r.status)
	}
	r.status = to
	r.updatedAt = time.Now()
	return r, nil
}

// Load attaches the uploaded file.
func (r Run) Load(fileName, format string, data []byte) (Run, error) {
	next, err := r.transition(Idle, FileLoaded)
	if err != nil {
		return r, err
	}
	next.fileName = fileName
	next.format = format
	next.source = data
	return next, nil
}

// MarkParsed stores the review summary and batch. The source bytes are
// released; a run cannot be parsed twice.
func (r Run) MarkParsed(summary Summary, batch []attendance.Record) (Run, error) {
	next, err := r.transition(FileLoaded, Parsed)
	if err != nil {
		return r, err
	}
	next.summary = &summary
	next.batch = batch
	next.source = nil
	return next, nil
}

func (r Run) MarkReviewed() (Run, error) {
	return r.transition(Parsed, Reviewed)
}

// CanSubmit reports why the run cannot be submitted, if anything.
func (r Run) CanSubmit() error {
	if r.status != Reviewed {
		return fmt.Errorf("%w: submit from %s", ErrInvalidTransition, r.status)
	}
	if r.summary == nil || len(r.summary.RecordsReady) == 0 {
		return ErrEmptyBatch
	}
	return nil
}

// MarkSubmitted ends the run; the batch now belongs to the persistence side.
func (r Run) MarkSubmitted() (Run, error) {
	if err := r.CanSubmit(); err != nil {
		return r, err
	}
	next, err := r.transition(Reviewed, Submitted)
	if err != nil {
		return r, err
	}
	next.submitted = len(next.batch)
	next.summary = nil
	next.batch = nil
	next.lastError = ""
	return next, nil
}

// MarkSubmissionFailed keeps the run reviewed so the operator can retry.
func (r Run) MarkSubmissionFailed(cause error) (Run, error) {
	if r.status != Reviewed {
		return r, fmt.Errorf("%w: submission failure recorded from %s", ErrInvalidTransition, r.status)
	}
	r.lastError = cause.Error()
	r.updatedAt = time.Now()
	return r, nil
}

// Cancel discards everything the run holds.
func (r Run) Cancel() (Run, error) {
	if r.status.Terminal() {
		return r, fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, r.status)
	}
	r.status = Cancelled
	r.source = nil
	r.summary = nil
	r.batch = nil
	r.updatedAt = time.Now()
	return r, nil
}
