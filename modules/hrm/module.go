package hrm

import (
	"github.com/iota-uz/campus-sdk/modules/hrm/infrastructure/persistence"
	"github.com/iota-uz/campus-sdk/modules/hrm/services"
	"github.com/iota-uz/campus-sdk/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	app.RegisterServices(
		services.NewEmployeeService(persistence.NewEmployeeRepository(), app.EventPublisher()),
	)
	return nil
}

func (m *Module) Name() string {
	return "hrm"
}
