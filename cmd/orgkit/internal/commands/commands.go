package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/fernandezvara/orgkit"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Globals struct {
	Debug       bool
	Version     string
	DatabaseURL string
}

var errNoDatabaseURL = errors.New("database URL is required (--database-url or ORGKIT_DATABASE_URL)")

func setupLogger(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

// openStore connects to the database and returns a Store with the default pool settings.
func openStore(globals *Globals) (*orgkit.Store, func(), error) {
	setupLogger(globals.Debug)

	if globals.DatabaseURL == "" {
		return nil, nil, errNoDatabaseURL
	}

	db, err := dbkit.New(dbkit.Config{URL: globals.DatabaseURL})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := orgkit.NewStore(db, orgkit.WithStoreLogger(log.Logger))
	if err := store.ConfigurePool(orgkit.DefaultPoolConfig()); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return store, func() { _ = db.Close() }, nil
}

// withActor attaches the acting administrator to ctx for membership audit entries.
func withActor(ctx context.Context, actor string) context.Context {
	if actor == "" {
		return ctx
	}
	return orgkit.WithActorID(ctx, actor)
}

func printMembership(m *orgkit.Membership) {
	grantedBy := "system"
	if m.GrantedBy != nil {
		grantedBy = *m.GrantedBy
	}
	fmt.Printf("%-36s  %-20s  %-12s  %-10s  %s  %s\n",
		m.ID, m.UserID, m.Role, m.State, m.GrantedOn.Format(time.RFC3339), grantedBy)
}
