package modules

import (
	"github.com/iota-uz/campus-sdk/modules/dtr"
	"github.com/iota-uz/campus-sdk/modules/hrm"
	"github.com/iota-uz/campus-sdk/pkg/application"
	"github.com/iota-uz/campus-sdk/pkg/configuration"
)

// BuiltInModules returns the modules in registration order; dtr depends on hrm.
func BuiltInModules(conf *configuration.Configuration) []application.Module {
	return []application.Module{
		hrm.NewModule(),
		dtr.NewModule(dtr.OptionsFromConfig(conf)),
	}
}

func Load(app application.Application, modules ...application.Module) error {
	return application.LoadModules(app, modules...)
}
