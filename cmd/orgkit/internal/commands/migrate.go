package commands

import (
	"context"

	"github.com/rs/zerolog/log"
)

type MigrateCmd struct{}

func (m *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	store, closeDB, err := openStore(globals)
	if err != nil {
		return err
	}
	defer closeDB()

	applied, err := store.Migrate(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		log.Info().Msg("Database is up to date")
		return nil
	}
	for _, id := range applied {
		log.Info().Str("migration", id).Msg("Applied migration")
	}
	return nil
}
