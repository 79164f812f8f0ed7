package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/iota-uz/campus-sdk/modules/dtr"
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/aggregates/importrun"
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/identity"
	"github.com/iota-uz/campus-sdk/modules/dtr/infrastructure/runstore"
	"github.com/iota-uz/campus-sdk/modules/dtr/services"
	"github.com/iota-uz/campus-sdk/modules/hrm/infrastructure/directory"
	"github.com/iota-uz/campus-sdk/modules/hrm/infrastructure/persistence"
	hrmservices "github.com/iota-uz/campus-sdk/modules/hrm/services"
	"github.com/iota-uz/campus-sdk/pkg/composables"
	"github.com/iota-uz/campus-sdk/pkg/configuration"
	"github.com/iota-uz/campus-sdk/pkg/eventbus"
)

type reviewOptions struct {
	file      string
	month     string
	staff     string
	overrides string
	apply     bool
	yes       bool
	strict    bool
}

type reviewOutput struct {
	RunID    string             `json:"run_id"`
	Month    string             `json:"month"`
	File     string             `json:"file"`
	Format   string             `json:"format"`
	DryRun   bool               `json:"dry_run"`
	Summary  *importrun.Summary `json:"summary"`
	Verdicts map[string]int     `json:"verdicts"`
}

type submitOutput struct {
	RunID     string           `json:"run_id"`
	Status    importrun.Status `json:"status"`
	Submitted int              `json:"submitted"`
}

func newReviewCmd() *cobra.Command {
	var opts reviewOptions

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Parse an attendance export and print the review summary",
		Long: `Parses the file, resolves every row to an employee and prints the review summary as JSON.
Nothing is written unless --apply is given; --apply asks for confirmation before submitting
unless --yes is also set.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(opts.file) == "" {
				return withCode(exitUsage, fmt.Errorf("--file is required"))
			}
			if strings.TrimSpace(opts.month) == "" {
				return withCode(exitUsage, fmt.Errorf("--month is required"))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, imports, cleanup, err := newImportService(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()
			return runReview(ctx, imports, opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Attendance export (.csv, .txt, .xlsx) (required)")
	cmd.Flags().StringVar(&opts.month, "month", "", "Reporting month, YYYY-MM (required)")
	cmd.Flags().StringVar(&opts.staff, "staff", "", "Staff YAML used instead of the employees table")
	cmd.Flags().StringVar(&opts.overrides, "overrides", "", "Override table (default: DTR_OVERRIDES_PATH)")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Submit the ready records (default is dry-run)")
	cmd.Flags().BoolVar(&opts.yes, "yes", false, "Do not ask for confirmation with --apply")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail when any row has an unresolved identity")
	return cmd
}

// newImportService wires the service for one CLI invocation. A database pool
// is opened only when the directory or the submit backend needs it.
func newImportService(ctx context.Context, opts reviewOptions) (context.Context, *services.ImportService, func(), error) {
	conf := configuration.Use()
	logger := conf.Logger()
	ctx = composables.WithLogger(ctx, logger.WithField("component", "dtr-import"))
	cleanup := func() {}

	overridesPath := opts.overrides
	if overridesPath == "" {
		overridesPath = conf.DTR.OverridesPath
	}
	overrides, err := identity.LoadOverrides(overridesPath)
	if err != nil {
		return ctx, nil, cleanup, withCode(exitValidation, err)
	}
	submitter, err := dtr.NewSubmitter(conf.DTR, conf.RequestIDHeader)
	if err != nil {
		return ctx, nil, cleanup, withCode(exitUsage, err)
	}

	needsDB := opts.staff == "" || (opts.apply && conf.DTR.SubmitBackend == "db")
	if needsDB {
		pool, err := pgxpool.New(ctx, conf.Database.Opts)
		if err != nil {
			return ctx, nil, cleanup, withCode(exitDB, fmt.Errorf("connect database: %w", err))
		}
		cleanup = pool.Close
		ctx = composables.WithPool(ctx, pool)
	}

	bus := eventbus.NewEventPublisher(logger)
	var staff services.EmployeeDirectory
	if opts.staff != "" {
		s, err := directory.Load(opts.staff)
		if err != nil {
			cleanup()
			return ctx, nil, func() {}, withCode(exitValidation, err)
		}
		staff = s
	} else {
		staff = hrmservices.NewEmployeeService(persistence.NewEmployeeRepository(), bus)
	}

	svc := services.NewImportService(staff, overrides, runstore.NewMemory(conf.DTR.RunTTL), submitter, bus, dtr.ImportOptions(conf.DTR))
	return ctx, svc, cleanup, nil
}

func runReview(ctx context.Context, imports *services.ImportService, opts reviewOptions, in io.Reader, out, errOut io.Writer) error {
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return withCode(exitDB, fmt.Errorf("read %s: %w", opts.file, err))
	}
	run, err := imports.Import(ctx, &services.LoadDTO{
		Month:    opts.month,
		FileName: filepath.Base(opts.file),
		Data:     data,
	})
	if err != nil {
		return classify(err)
	}

	summary := run.Summary()
	if err := writeJSON(out, reviewOutput{
		RunID:    run.ID().String(),
		Month:    run.Month(),
		File:     run.FileName(),
		Format:   run.Format(),
		DryRun:   !opts.apply,
		Summary:  summary,
		Verdicts: verdicts(summary),
	}); err != nil {
		return err
	}

	if opts.strict && summary.Counts.Unmapped > 0 {
		return classify(fmt.Errorf("%w: %d rows", importrun.ErrUnresolvedIdentity, summary.Counts.Unmapped))
	}
	if !opts.apply {
		return nil
	}

	if !opts.yes {
		prompt := fmt.Sprintf("Submit %d records for %s? [y/N] ", len(run.Batch()), run.Month())
		if !confirm(in, errOut, prompt) {
			_, _ = imports.Cancel(ctx, run.ID())
			_, _ = fmt.Fprintln(errOut, "submission aborted")
			return nil
		}
	}

	if _, err := imports.Review(ctx, run.ID()); err != nil {
		return classify(err)
	}
	submitted, err := imports.Submit(ctx, run.ID())
	if err != nil {
		return classify(err)
	}
	return writeJSON(out, submitOutput{
		RunID:     submitted.ID().String(),
		Status:    submitted.Status(),
		Submitted: submitted.SubmittedCount(),
	})
}

func verdicts(s *importrun.Summary) map[string]int {
	if s == nil {
		return map[string]int{}
	}
	return map[string]int{
		"ready":        s.Counts.Ready,
		"placeholders": len(s.Placeholders),
		"unmapped":     s.Counts.Unmapped,
		"duplicate":    s.Counts.Duplicate,
		"invalid":      s.Counts.Invalid,
		"no_day":       s.Counts.NoDay,
		"no_time":      s.Counts.NoTime,
	}
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	_, _ = fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
