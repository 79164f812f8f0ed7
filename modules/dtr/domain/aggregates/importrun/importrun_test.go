package importrun

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/campus-sdk/modules/dtr/domain/attendance"
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/clocktime"
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/identity"
)

func record(emp uint, day int, conf identity.Confidence) attendance.Record {
	return attendance.Record{EmployeeID: emp, Day: day, AMArrival: clocktime.MustNew(8, 0), Confidence: conf}
}

func parsedRun(t *testing.T, ready ...attendance.Record) Run {
	t.Helper()
	r, err := New("2025-08")
	require.NoError(t, err)
	r, err = r.Load("aug.csv", "csv", []byte("data"))
	require.NoError(t, err)
	r, err = r.MarkParsed(Summary{RecordsReady: ready}, ready)
	require.NoError(t, err)
	return r
}

func TestNew_ValidatesMonth(t *testing.T) {
	_, err := New("2025-13")
	require.ErrorIs(t, err, ErrInvalidMonth)

	r, err := New("2025-08")
	require.NoError(t, err)
	assert.Equal(t, Idle, r.Status())
	assert.NotEqual(t, uuid.Nil, r.ID())
}

func TestRun_HappyPath(t *testing.T) {
	r := parsedRun(t, record(1, 1, identity.Exact))
	assert.Equal(t, Parsed, r.Status())
	assert.Nil(t, r.Source(), "source released after parse")
	require.NotNil(t, r.Summary())

	r, err := r.MarkReviewed()
	require.NoError(t, err)
	require.NoError(t, r.CanSubmit())

	r, err = r.MarkSubmitted()
	require.NoError(t, err)
	assert.Equal(t, Submitted, r.Status())
	assert.Equal(t, 1, r.SubmittedCount())
	assert.Nil(t, r.Summary())
	assert.Nil(t, r.Batch())
}

func TestRun_NoSkippingReview(t *testing.T) {
	r := parsedRun(t, record(1, 1, identity.Exact))
	_, err := r.MarkSubmitted()
	require.ErrorIs(t, err, ErrInvalidTransition)

	idle, err := New("2025-08")
	require.NoError(t, err)
	_, err = idle.MarkParsed(Summary{}, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = idle.MarkReviewed()
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRun_EmptyBatch(t *testing.T) {
	r := parsedRun(t)
	r, err := r.MarkReviewed()
	require.NoError(t, err)

	require.ErrorIs(t, r.CanSubmit(), ErrEmptyBatch)
	_, err = r.MarkSubmitted()
	require.ErrorIs(t, err, ErrEmptyBatch)
}

func TestRun_SubmissionFailureKeepsState(t *testing.T) {
	r := parsedRun(t, record(1, 1, identity.Exact))
	r, err := r.MarkReviewed()
	require.NoError(t, err)

	failed, err := r.MarkSubmissionFailed(errors.New("gateway timeout"))
	require.NoError(t, err)
	assert.Equal(t, Reviewed, failed.Status())
	assert.Equal(t, "gateway timeout", failed.LastError())
	assert.Len(t, failed.Batch(), 1)

	done, err := failed.MarkSubmitted()
	require.NoError(t, err)
	assert.Empty(t, done.LastError())
}

func TestRun_Cancel(t *testing.T) {
	r, err := New("2025-08")
	require.NoError(t, err)
	r, err = r.Load("aug.csv", "csv", []byte("x"))
	require.NoError(t, err)

	cancelled, err := r.Cancel()
	require.NoError(t, err)
	assert.Equal(t, Cancelled, cancelled.Status())
	assert.Nil(t, cancelled.Source())
	assert.Equal(t, FileLoaded, r.Status(), "receiver untouched")

	_, err = cancelled.Cancel()
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = cancelled.MarkReviewed()
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSnapshotRoundTrip(t *testing.T) {
	r := parsedRun(t, record(1, 2, identity.Partial))
	back := Hydrate(r.Snapshot())
	assert.Equal(t, r, back)
}

func TestSummarize(t *testing.T) {
	ok := func(line int, emp uint, day int, conf identity.Confidence) attendance.Result {
		rec := record(emp, day, conf)
		return attendance.Result{
			Line:       line,
			Resolution: identity.Resolution{Identity: identity.Identity{EmployeeID: emp}, Method: identity.MethodFullName, Confidence: conf},
			Record:     &rec,
		}
	}
	skip := func(line int, id int64, name string, reason attendance.Reason) attendance.Result {
		return attendance.Result{
			Line:       line,
			ExternalID: id,
			SourceName: name,
			Resolution: identity.Resolution{Method: identity.MethodNone, Confidence: identity.None},
			Skip:       reason,
		}
	}

	results := []attendance.Result{
		ok(2, 1, 3, identity.Exact),
		ok(3, 1, 4, identity.Exact),
		ok(4, 2, 3, identity.Partial),
		skip(5, 4570035, "SEVEN", attendance.ReasonUnmapped),
		skip(6, 4570035, "seven", attendance.ReasonUnmapped),
		skip(7, 0, "", attendance.ReasonNoTimeData),
		skip(8, 9, "x", attendance.ReasonDuplicateDay),
		skip(9, 9, "x", attendance.ReasonInvalidTime),
		skip(10, 9, "x", attendance.ReasonNoDay),
	}
	results[5].Resolution.StaleOverride = true
	results[5].ExternalID = 77

	final, batch := attendance.Finalize(results, true)
	var asked []string
	s := Summarize(final, batch, func(name string) []identity.Suggestion {
		asked = append(asked, name)
		return []identity.Suggestion{{EmployeeID: 1, DisplayName: "Seven Cruz"}}
	})

	assert.Equal(t, 9, s.TotalRows)
	assert.Equal(t, 2, s.MappedCount)
	assert.Len(t, s.RecordsReady, 3)
	assert.Len(t, s.Placeholders, 2)
	assert.Equal(t, 1, s.LowConfidence)
	assert.Equal(t, Counts{Ready: 3, Unmapped: 2, Duplicate: 1, Invalid: 1, NoDay: 1, NoTime: 1}, s.Counts)
	assert.Len(t, s.Skipped, 6)
	assert.Len(t, s.Rows, 9)
	assert.Equal(t, []int64{77}, s.StaleOverrides)

	require.Len(t, s.Unmapped, 1)
	assert.Equal(t, int64(4570035), s.Unmapped[0].ExternalID)
	assert.Equal(t, 2, s.Unmapped[0].Occurrences)
	assert.Equal(t, []string{"SEVEN"}, asked)
	assert.Equal(t, "Seven Cruz", s.Unmapped[0].Suggestions[0].DisplayName)

	for _, rec := range s.RecordsReady {
		assert.NotZero(t, rec.EmployeeID)
	}
	assert.Equal(t, "ready", s.Rows[0].Status)
	assert.Equal(t, 3, s.Rows[0].Day)
}
