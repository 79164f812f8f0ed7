package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/campus-sdk/migrations"
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/aggregates/importrun"
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/identity"
	"github.com/iota-uz/campus-sdk/modules/dtr/infrastructure/runstore"
	"github.com/iota-uz/campus-sdk/modules/dtr/services"
	"github.com/iota-uz/campus-sdk/modules/hrm/infrastructure/directory"
	"github.com/iota-uz/campus-sdk/pkg/eventbus"
)

const staffYAML = `
employees:
  - id: 58
    first_name: Severino
    last_name: Cruz
  - id: 3
    first_name: Ana
    last_name: Reyes
    device_id: 1203
`

const exportCSV = "ID,Name,Department,Date,AM In,AM Out,PM In,PM Out\n" +
	"4570035,SEVEN,IT,2025-08-04,08:00,12:00,13:00,17:00\n" +
	"1203,Ana Reyes,IT,2025-08-04,07:55,12:00,13:00,17:05\n"

type cliHarness struct {
	imports   *services.ImportService
	submitted []importrun.Batch
	submitErr error
	opts      reviewOptions
	out       bytes.Buffer
	errOut    bytes.Buffer
}

func newCLIHarness(t *testing.T, overrides identity.OverrideTable, csv string) *cliHarness {
	t.Helper()
	staff, err := directory.Parse([]byte(staffYAML))
	require.NoError(t, err)

	h := &cliHarness{}
	submitter := importrun.SubmitterFunc(func(ctx context.Context, b importrun.Batch) error {
		if h.submitErr != nil {
			return h.submitErr
		}
		h.submitted = append(h.submitted, b)
		return nil
	})
	h.imports = services.NewImportService(staff, overrides, runstore.NewMemory(time.Hour), submitter,
		eventbus.NewEventPublisher(nil), services.DefaultImportOptions())

	path := filepath.Join(t.TempDir(), "aug.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))
	h.opts = reviewOptions{file: path, month: "2025-08"}
	return h
}

func (h *cliHarness) run(stdin string) error {
	return runReview(context.Background(), h.imports, h.opts, strings.NewReader(stdin), &h.out, &h.errOut)
}

func (h *cliHarness) review(t *testing.T) reviewOutput {
	t.Helper()
	var out reviewOutput
	require.NoError(t, json.NewDecoder(&h.out).Decode(&out))
	return out
}

func TestReview_DryRun(t *testing.T) {
	h := newCLIHarness(t, nil, exportCSV)
	require.NoError(t, h.run(""))

	out := h.review(t)
	assert.True(t, out.DryRun)
	assert.Equal(t, "2025-08", out.Month)
	assert.Equal(t, "csv", out.Format)
	assert.Equal(t, 1, out.Verdicts["ready"])
	assert.Equal(t, 1, out.Verdicts["unmapped"])
	require.Len(t, out.Summary.Unmapped, 1)
	assert.Equal(t, "SEVEN", out.Summary.Unmapped[0].SourceName)
	assert.Empty(t, h.submitted)
}

func TestReview_Strict(t *testing.T) {
	h := newCLIHarness(t, nil, exportCSV)
	h.opts.strict = true
	h.opts.apply = true
	h.opts.yes = true

	err := h.run("")
	require.ErrorIs(t, err, importrun.ErrUnresolvedIdentity)
	assert.Equal(t, exitValidation, exitCode(err))
	assert.Empty(t, h.submitted)
}

func TestReview_ApplyConfirmed(t *testing.T) {
	h := newCLIHarness(t, identity.OverrideTable{4570035: 58}, exportCSV)
	h.opts.apply = true

	require.NoError(t, h.run("y\n"))
	assert.Contains(t, h.errOut.String(), "[y/N]")
	require.Len(t, h.submitted, 1)
	assert.Equal(t, "2025-08", h.submitted[0].Month)

	h.review(t)
	var sub submitOutput
	require.NoError(t, json.NewDecoder(&h.out).Decode(&sub))
	assert.Equal(t, importrun.Submitted, sub.Status)
	assert.Equal(t, len(h.submitted[0].Records), sub.Submitted)
}

func TestReview_ApplyDeclined(t *testing.T) {
	h := newCLIHarness(t, identity.OverrideTable{4570035: 58}, exportCSV)
	h.opts.apply = true

	require.NoError(t, h.run("n\n"))
	assert.Contains(t, h.errOut.String(), "submission aborted")
	assert.Empty(t, h.submitted)
}

func TestReview_ExitCodes(t *testing.T) {
	t.Run("empty batch", func(t *testing.T) {
		h := newCLIHarness(t, nil, "ID,Name,Department,Date,AM In,AM Out,PM In,PM Out\n"+
			"4570035,SEVEN,IT,2025-08-04,08:00,12:00,13:00,17:00\n")
		h.opts.apply, h.opts.yes = true, true
		assert.Equal(t, exitEmptyBatch, exitCode(h.run("")))
	})

	t.Run("submission failure", func(t *testing.T) {
		h := newCLIHarness(t, nil, exportCSV)
		h.opts.apply, h.opts.yes = true, true
		h.submitErr = errors.New("endpoint returned 503")
		err := h.run("")
		assert.Equal(t, exitSubmission, exitCode(err))
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("bad month", func(t *testing.T) {
		h := newCLIHarness(t, nil, exportCSV)
		h.opts.month = "08/2025"
		assert.Equal(t, exitValidation, exitCode(h.run("")))
	})

	t.Run("missing file", func(t *testing.T) {
		h := newCLIHarness(t, nil, exportCSV)
		h.opts.file = filepath.Join(t.TempDir(), "nope.csv")
		assert.Equal(t, exitDB, exitCode(h.run("")))
	})
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.Equal(t, exitUsage, exitCode(classify(migrations.ErrUnknownCommand)))
	assert.Equal(t, exitDB, exitCode(classify(errors.New("connection refused"))))
	assert.Equal(t, exitUsage, exitCode(classify(withCode(exitUsage, errors.New("x")))))
	assert.Equal(t, 1, exitCode(errors.New("plain")))
}

func TestRootCmd_Usage(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"review", "--month", "2025-08"})
	root.SetOut(&bytes.Buffer{})
	err := root.Execute()
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))

	root = newRootCmd()
	root.SetArgs([]string{"review", "--bogus"})
	err = root.Execute()
	assert.Equal(t, exitUsage, exitCode(err))

	root = newRootCmd()
	root.SetArgs([]string{"migrate"})
	err = root.Execute()
	assert.Equal(t, exitUsage, exitCode(err))
}
