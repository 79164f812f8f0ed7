package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/iota-uz/campus-sdk/migrations"
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/aggregates/importrun"
	"github.com/iota-uz/campus-sdk/modules/dtr/infrastructure/extract"
	"github.com/iota-uz/campus-sdk/modules/dtr/services"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitValidation = 2
	exitUsage      = 3
	exitDB         = 4
	exitSubmission = 5
	exitEmptyBatch = 6
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}

// classify assigns an exit code to an error coming out of the import service.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return err
	}
	switch {
	case errors.Is(err, services.ErrInvalidPayload),
		errors.Is(err, importrun.ErrInvalidMonth),
		errors.Is(err, importrun.ErrUnresolvedIdentity),
		errors.Is(err, extract.ErrUnsupportedFormat):
		return withCode(exitValidation, err)
	case errors.Is(err, importrun.ErrEmptyBatch):
		return withCode(exitEmptyBatch, err)
	case errors.Is(err, importrun.ErrSubmissionFailure):
		return withCode(exitSubmission, err)
	case errors.Is(err, migrations.ErrUnknownCommand):
		return withCode(exitUsage, err)
	default:
		return withCode(exitDB, err)
	}
}

// withExitCodes makes a shared command report usage and runtime failures
// with this tool's exit codes.
func withExitCodes(c *cobra.Command) *cobra.Command {
	if args := c.Args; args != nil {
		c.Args = func(cmd *cobra.Command, a []string) error {
			return withCode(exitUsage, args(cmd, a))
		}
	}
	if run := c.RunE; run != nil {
		c.RunE = func(cmd *cobra.Command, a []string) error {
			return classify(run(cmd, a))
		}
	}
	return c
}
