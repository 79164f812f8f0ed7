package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/campus-sdk/modules/dtr/domain/aggregates/importrun"
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/attendance"
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/identity"
	"github.com/iota-uz/campus-sdk/modules/dtr/infrastructure/extract"
	"github.com/iota-uz/campus-sdk/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/campus-sdk/pkg/composables"
	"github.com/iota-uz/campus-sdk/pkg/eventbus"
	"github.com/iota-uz/campus-sdk/pkg/serrors"
)

var ErrInvalidPayload = serrors.NewError("DTR_INVALID_PAYLOAD", "invalid import request", "DTR.Errors.InvalidPayload")

// EmployeeDirectory lists the employees identities are resolved against.
type EmployeeDirectory interface {
	List(ctx context.Context) ([]employee.Employee, error)
}

type ImportOptions struct {
	PadFirstDay bool
	Workbook    extract.WorkbookOptions
	// Suggestions per unmapped identifier; 0 disables them.
	Suggestions int
}

func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		PadFirstDay: true,
		Workbook:    extract.WorkbookOptions{Layout: extract.WorkbookAuto, Template: extract.DefaultTemplateOptions()},
		Suggestions: 3,
	}
}

type ImportService struct {
	directory EmployeeDirectory
	overrides identity.OverrideTable
	runs      importrun.Repository
	submitter importrun.Submitter
	publisher eventbus.EventBus
	opts      ImportOptions
	m         *metrics
}

func NewImportService(
	directory EmployeeDirectory,
	overrides identity.OverrideTable,
	runs importrun.Repository,
	submitter importrun.Submitter,
	publisher eventbus.EventBus,
	opts ImportOptions,
) *ImportService {
	return &ImportService{
		directory: directory,
		overrides: overrides,
		runs:      runs,
		submitter: submitter,
		publisher: publisher,
		opts:      opts,
		m:         getMetrics(),
	}
}

func (s *ImportService) logger(ctx context.Context, id uuid.UUID) *logrus.Entry {
	return composables.UseLogger(ctx).WithFields(logrus.Fields{
		"component": "dtr.import",
		"run_id":    id.String(),
	})
}

func (s *ImportService) Get(ctx context.Context, id uuid.UUID) (importrun.Run, error) {
	return s.runs.Get(ctx, id)
}

// Load starts a run with an uploaded file.
func (s *ImportService) Load(ctx context.Context, dto *LoadDTO) (importrun.Run, error) {
	if errs, ok := dto.Ok(); !ok {
		return importrun.Run{}, fmt.Errorf("%w: %v", ErrInvalidPayload, errs)
	}
	format, err := extract.Detect(dto.FileName, dto.Data)
	if err != nil {
		return importrun.Run{}, err
	}
	run, err := importrun.New(dto.Month)
	if err != nil {
		return importrun.Run{}, err
	}
	run, err = run.Load(dto.FileName, string(format), dto.Data)
	if err != nil {
		return importrun.Run{}, err
	}
	if err := s.runs.Save(ctx, run); err != nil {
		return importrun.Run{}, err
	}
	s.m.runsTotal.WithLabelValues(string(importrun.FileLoaded)).Inc()
	s.logger(ctx, run.ID()).WithFields(logrus.Fields{
		"file":   dto.FileName,
		"format": format,
		"bytes":  len(dto.Data),
	}).Info("dtr import loaded")
	return run, nil
}

// Parse extracts, resolves and assembles every row of the loaded file.
// Row-level problems become skip reasons; only unreadable files fail.
func (s *ImportService) Parse(ctx context.Context, id uuid.UUID) (importrun.Run, error) {
	run, err := s.runs.Get(ctx, id)
	if err != nil {
		return importrun.Run{}, err
	}
	if run.Status() != importrun.FileLoaded {
		return run, fmt.Errorf("%w: parse from %s", importrun.ErrInvalidTransition, run.Status())
	}

	staff, err := s.directory.List(ctx)
	if err != nil {
		return run, fmt.Errorf("list employees: %w", err)
	}
	resolver := identity.NewResolver(s.overrides, toIdentities(staff))

	_, seq := extract.Extract(run.FileName(), run.Source(), extract.Options{Workbook: s.opts.Workbook})
	var results []attendance.Result
	for row, ok := seq.Next(); ok; row, ok = seq.Next() {
		res := resolver.Resolve(row.Key())
		s.m.resolutionsTotal.WithLabelValues(string(res.Method)).Inc()
		results = append(results, attendance.Assemble(row, res))
	}
	if err := seq.Err(); err != nil {
		return run, fmt.Errorf("extract %s: %w", run.FileName(), err)
	}

	results, batch := attendance.Finalize(results, s.opts.PadFirstDay)
	var suggest importrun.Suggester
	if s.opts.Suggestions > 0 {
		suggest = func(name string) []identity.Suggestion {
			return resolver.Suggest(name, s.opts.Suggestions)
		}
	}
	summary := importrun.Summarize(results, batch, suggest)
	summary.BlankRows = seq.Skipped()
	if stop, ok := seq.Stopped(); ok {
		summary.StoppedAt = &importrun.StopRow{Sheet: stop.Sheet, Line: stop.Line, Value: stop.Value}
	}

	run, err = run.MarkParsed(summary, batch)
	if err != nil {
		return run, err
	}
	if err := s.runs.Save(ctx, run); err != nil {
		return run, err
	}

	for _, r := range results {
		s.m.rowsTotal.WithLabelValues(r.Status()).Inc()
	}
	s.m.runsTotal.WithLabelValues(string(importrun.Parsed)).Inc()
	s.logger(ctx, run.ID()).WithFields(logrus.Fields{
		"rows":     summary.TotalRows,
		"ready":    summary.Counts.Ready,
		"unmapped": summary.Counts.Unmapped,
		"skipped":  len(summary.Skipped),
	}).Info("dtr import parsed")
	if summary.StoppedAt != nil {
		s.logger(ctx, run.ID()).WithFields(logrus.Fields{
			"line":  summary.StoppedAt.Line,
			"value": summary.StoppedAt.Value,
		}).Warn("dtr import stopped at non-numeric id")
	}
	s.publisher.Publish(importrun.NewParsedEvent(run))
	return run, nil
}

// Import is Load followed by Parse.
func (s *ImportService) Import(ctx context.Context, dto *LoadDTO) (importrun.Run, error) {
	run, err := s.Load(ctx, dto)
	if err != nil {
		return importrun.Run{}, err
	}
	return s.Parse(ctx, run.ID())
}

// Review marks the summary as seen by the operator, which unlocks Submit.
func (s *ImportService) Review(ctx context.Context, id uuid.UUID) (importrun.Summary, error) {
	run, err := s.runs.Get(ctx, id)
	if err != nil {
		return importrun.Summary{}, err
	}
	run, err = run.MarkReviewed()
	if err != nil {
		return importrun.Summary{}, err
	}
	if err := s.runs.Save(ctx, run); err != nil {
		return importrun.Summary{}, err
	}
	s.m.runsTotal.WithLabelValues(string(importrun.Reviewed)).Inc()
	s.publisher.Publish(importrun.NewReviewedEvent(run))
	return *run.Summary(), nil
}

// Submit hands the reviewed batch over in one call. A failed call leaves the
// run reviewed for an operator retry; nothing is retried here. A concurrent
// Submit or Cancel of the same run fails with ErrRunBusy.
func (s *ImportService) Submit(ctx context.Context, id uuid.UUID) (importrun.Run, error) {
	unlock, err := s.runs.Lock(ctx, id)
	if err != nil {
		return importrun.Run{}, err
	}
	defer unlock()

	run, err := s.runs.Get(ctx, id)
	if err != nil {
		return importrun.Run{}, err
	}
	if err := run.CanSubmit(); err != nil {
		return run, err
	}
	log := s.logger(ctx, id)

	batch := importrun.Batch{RunID: run.ID(), Month: run.Month(), Records: run.Batch()}
	if subErr := s.submitter.Submit(ctx, batch); subErr != nil {
		s.m.submissionsTotal.WithLabelValues("failure").Inc()
		log.WithError(subErr).Warn("dtr batch submission failed")
		failed, err := run.MarkSubmissionFailed(subErr)
		if err != nil {
			return run, err
		}
		if err := s.runs.Save(ctx, failed); err != nil {
			return failed, errors.Join(fmt.Errorf("%w: %w", importrun.ErrSubmissionFailure, subErr), err)
		}
		s.publisher.Publish(importrun.NewSubmissionFailedEvent(failed, subErr))
		return failed, fmt.Errorf("%w: %w", importrun.ErrSubmissionFailure, subErr)
	}

	records := len(batch.Records)
	run, err = run.MarkSubmitted()
	if err != nil {
		return run, err
	}
	if err := s.runs.Save(ctx, run); err != nil {
		return run, err
	}
	s.m.submissionsTotal.WithLabelValues("success").Inc()
	s.m.runsTotal.WithLabelValues(string(importrun.Submitted)).Inc()
	log.WithField("records", records).Info("dtr batch submitted")
	s.publisher.Publish(importrun.NewSubmittedEvent(run, records))
	return run, nil
}

// Cancel discards the run and everything it holds.
func (s *ImportService) Cancel(ctx context.Context, id uuid.UUID) (importrun.Run, error) {
	unlock, err := s.runs.Lock(ctx, id)
	if err != nil {
		return importrun.Run{}, err
	}
	defer unlock()

	run, err := s.runs.Get(ctx, id)
	if err != nil {
		return importrun.Run{}, err
	}
	run, err = run.Cancel()
	if err != nil {
		return run, err
	}
	if err := s.runs.Save(ctx, run); err != nil {
		return run, err
	}
	s.m.runsTotal.WithLabelValues(string(importrun.Cancelled)).Inc()
	s.logger(ctx, id).Info("dtr import cancelled")
	s.publisher.Publish(importrun.NewCancelledEvent(run))
	return run, nil
}

func toIdentities(staff []employee.Employee) []identity.Employee {
	out := make([]identity.Employee, 0, len(staff))
	for _, e := range staff {
		ie := identity.Employee{
			ID:         e.ID(),
			FirstName:  e.FirstName(),
			LastName:   e.LastName(),
			MiddleName: e.MiddleName(),
		}
		if d := e.DeviceID(); d != nil {
			ie.DeviceID = *d
		}
		out = append(out, ie)
	}
	return out
}
