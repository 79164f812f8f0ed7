package commands

import (
	"context"

	"github.com/iota-uz/campus-sdk/migrations"
	"github.com/iota-uz/campus-sdk/pkg/configuration"
)

// Migrate runs one goose command against the configured database.
func Migrate(ctx context.Context, command string, args ...string) error {
	conf := configuration.Use()
	db, err := migrations.Open(conf.Database.Opts)
	if err != nil {
		return err
	}
	defer db.Close()

	conf.Logger().WithField("command", command).Info("running migrations")
	return migrations.Run(ctx, db, command, args...)
}
