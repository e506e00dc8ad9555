package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

type HealthCmd struct{}

func (h *HealthCmd) Run(ctx context.Context, globals *Globals) error {
	store, closeDB, err := openStore(globals)
	if err != nil {
		return err
	}
	defer closeDB()

	status := store.Health(ctx)
	stats := store.PoolStats()

	log.Info().
		Bool("healthy", status.Healthy).
		Interface("pool", stats).
		Msg("Database health")

	if !status.Healthy {
		return errors.New("database is unhealthy: " + status.Error)
	}
	fmt.Println("ok")
	return nil
}
