package dtr

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/campus-sdk/modules/dtr/domain/aggregates/importrun"
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/identity"
	"github.com/iota-uz/campus-sdk/modules/dtr/infrastructure/extract"
	"github.com/iota-uz/campus-sdk/modules/dtr/infrastructure/persistence"
	"github.com/iota-uz/campus-sdk/modules/dtr/infrastructure/runstore"
	"github.com/iota-uz/campus-sdk/modules/dtr/infrastructure/submission"
	"github.com/iota-uz/campus-sdk/modules/dtr/presentation/controllers"
	"github.com/iota-uz/campus-sdk/modules/dtr/services"
	hrmservices "github.com/iota-uz/campus-sdk/modules/hrm/services"
	"github.com/iota-uz/campus-sdk/pkg/application"
	"github.com/iota-uz/campus-sdk/pkg/configuration"
	"github.com/iota-uz/campus-sdk/pkg/outbox"
)

type ModuleOptions struct {
	DTR             configuration.DTROptions
	RedisURL        string
	RequestIDHeader string
	MaxUploadSize   int64
}

// OptionsFromConfig builds module options from the process configuration.
func OptionsFromConfig(conf *configuration.Configuration) *ModuleOptions {
	return &ModuleOptions{
		DTR:             conf.DTR,
		RedisURL:        conf.RedisURL,
		RequestIDHeader: conf.RequestIDHeader,
		MaxUploadSize:   conf.MaxUploadSize,
	}
}

func NewModule(opts *ModuleOptions) application.Module {
	return &Module{opts: opts}
}

type Module struct {
	opts *ModuleOptions
}

// Register needs the hrm module registered first; its employee service is
// the directory identities are resolved against.
func (m *Module) Register(app application.Application) error {
	conf := m.opts.DTR
	overrides, err := identity.LoadOverrides(conf.OverridesPath)
	if err != nil {
		return err
	}
	runs, err := NewRunStore(conf, m.opts.RedisURL)
	if err != nil {
		return err
	}
	submitter, err := NewSubmitter(conf, m.opts.RequestIDHeader)
	if err != nil {
		return err
	}

	opts := ImportOptions(conf)

	employees := app.Service(hrmservices.EmployeeService{}).(*hrmservices.EmployeeService)
	app.RegisterServices(
		services.NewImportService(employees, overrides, runs, submitter, app.EventPublisher(), opts),
	)
	app.RegisterControllers(
		controllers.NewImportController(app, m.opts.MaxUploadSize),
	)
	if l := app.Logger(); l != nil {
		l.WithFields(logrus.Fields{
			"overrides": len(overrides),
			"store":     conf.RunStore,
			"backend":   conf.SubmitBackend,
		}).Info("dtr module configured")
	}
	return nil
}

func (m *Module) Name() string {
	return "dtr"
}

// ImportOptions maps configuration onto the import service options.
func ImportOptions(conf configuration.DTROptions) services.ImportOptions {
	opts := services.DefaultImportOptions()
	opts.PadFirstDay = conf.PadFirstDay
	opts.Workbook.Template = TemplateOptions(conf)
	return opts
}

// TemplateOptions applies the configured template cells to the default template.
func TemplateOptions(conf configuration.DTROptions) extract.TemplateOptions {
	t := extract.DefaultTemplateOptions()
	t.FirstDayRow = conf.TemplateFirstRow
	t.LastDayRow = conf.TemplateLastRow
	t.NameCell = conf.TemplateNameCell
	t.IDCell = conf.TemplateIDCell
	return t
}

// NewRunStore returns the configured run store.
func NewRunStore(conf configuration.DTROptions, redisURL string) (importrun.Repository, error) {
	switch conf.RunStore {
	case "redis":
		return runstore.NewRedis(redis.NewClient(&redis.Options{Addr: redisURL}), conf.RunTTL), nil
	case "memory", "":
		return runstore.NewMemory(conf.RunTTL), nil
	default:
		return nil, fmt.Errorf("dtr: unknown run store %q", conf.RunStore)
	}
}

// NewSubmitter returns the configured persistence boundary. The db backend
// needs a pool or transaction in the submit context.
func NewSubmitter(conf configuration.DTROptions, requestIDHeader string) (importrun.Submitter, error) {
	switch conf.SubmitBackend {
	case "http":
		return submission.NewHTTPSubmitter(conf.SubmitURL, conf.SubmitToken, conf.SubmitTimeout, requestIDHeader), nil
	case "db", "":
		table, err := outbox.ParseIdentifier(conf.OutboxTable)
		if err != nil {
			return nil, fmt.Errorf("dtr: outbox table: %w", err)
		}
		return persistence.NewRecordRepository(outbox.NewPublisher(), table), nil
	default:
		return nil, fmt.Errorf("dtr: unknown submit backend %q", conf.SubmitBackend)
	}
}

// NewRelay forwards submitted batches from the outbox to DTR_RELAY_URL.
// It returns nil when no relay URL is configured.
func NewRelay(pool *pgxpool.Pool, conf configuration.DTROptions, logger *logrus.Logger) (*outbox.Relay, error) {
	if conf.RelayURL == "" {
		return nil, nil
	}
	table, err := outbox.ParseIdentifier(conf.OutboxTable)
	if err != nil {
		return nil, fmt.Errorf("dtr: outbox table: %w", err)
	}
	return outbox.NewRelay(pool, table, submission.NewWebhookDispatcher(conf.RelayURL, conf.SubmitTimeout), outbox.RelayOptions{
		PollInterval: conf.RelayPollInterval,
		MaxAttempts:  conf.RelayMaxAttempts,
		SingleActive: true,
		Logger:       logger.WithField("component", "dtr.relay"),
	})
}
