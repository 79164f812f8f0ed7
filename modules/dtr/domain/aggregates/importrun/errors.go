package importrun

import "github.com/iota-uz/campus-sdk/pkg/serrors"

var (
	ErrNotFound           = serrors.NewError("DTR_RUN_NOT_FOUND", "import run not found", "DTR.Errors.RunNotFound")
	ErrInvalidTransition  = serrors.NewError("DTR_INVALID_TRANSITION", "import run is not in a state that allows this action", "DTR.Errors.InvalidTransition")
	ErrInvalidMonth       = serrors.NewError("DTR_INVALID_MONTH", "month must be formatted as YYYY-MM", "DTR.Errors.InvalidMonth")
	ErrEmptyBatch         = serrors.NewError("DTR_EMPTY_BATCH", "no rows are ready for submission", "DTR.Errors.EmptyBatch")
	ErrSubmissionFailure  = serrors.NewError("DTR_SUBMISSION_FAILED", "submitting the batch failed", "DTR.Errors.SubmissionFailed")
	ErrRunBusy            = serrors.NewError("DTR_RUN_BUSY", "another action on this import run is in progress", "DTR.Errors.RunBusy")
	ErrUnresolvedIdentity = serrors.NewError("DTR_UNRESOLVED_IDENTITY", "some rows could not be matched to an employee", "DTR.Errors.UnresolvedIdentity")
)
