package commands

import (
	"context"
	"fmt"

	"github.com/fernandezvara/orgkit"
	"github.com/rs/zerolog/log"
)

type GrantCmd struct {
	Organization string `arg:"" help:"Organization ID"`
	User         string `arg:"" help:"User ID"`
	Role         string `arg:"" help:"Role name (e.g. Owner, Manager, Accountant, Maintenance, Tenant)"`
	Actor        string `help:"User ID of the administrator performing the change" env:"ORGKIT_ACTOR"`
}

func (g *GrantCmd) Run(ctx context.Context, globals *Globals) error {
	role, err := orgkit.ParseRole(g.Role)
	if err != nil {
		return err
	}

	store, closeDB, err := openStore(globals)
	if err != nil {
		return err
	}
	defer closeDB()

	if !role.IsWellKnown() {
		log.Warn().Str("role", g.Role).Msg("Role is not one of the well-known roles")
	}

	m, err := store.Grant(withActor(ctx, g.Actor), g.Organization, g.User, role)
	if err != nil {
		return err
	}
	printMembership(m)
	return nil
}

type SuspendCmd struct {
	Membership string `arg:"" help:"Membership ID"`
	Actor      string `help:"User ID of the administrator performing the change" env:"ORGKIT_ACTOR"`
}

func (s *SuspendCmd) Run(ctx context.Context, globals *Globals) error {
	return runTransition(ctx, globals, s.Actor, func(ctx context.Context, store *orgkit.Store) (*orgkit.Membership, error) {
		return store.Suspend(ctx, s.Membership)
	})
}

type RestoreCmd struct {
	Membership string `arg:"" help:"Membership ID"`
	Actor      string `help:"User ID of the administrator performing the change" env:"ORGKIT_ACTOR"`
}

func (r *RestoreCmd) Run(ctx context.Context, globals *Globals) error {
	return runTransition(ctx, globals, r.Actor, func(ctx context.Context, store *orgkit.Store) (*orgkit.Membership, error) {
		return store.Restore(ctx, r.Membership)
	})
}

type ChangeRoleCmd struct {
	Membership string `arg:"" help:"Membership ID"`
	Role       string `arg:"" help:"New role name"`
	Actor      string `help:"User ID of the administrator performing the change" env:"ORGKIT_ACTOR"`
}

func (c *ChangeRoleCmd) Run(ctx context.Context, globals *Globals) error {
	role, err := orgkit.ParseRole(c.Role)
	if err != nil {
		return err
	}
	return runTransition(ctx, globals, c.Actor, func(ctx context.Context, store *orgkit.Store) (*orgkit.Membership, error) {
		return store.ChangeRole(ctx, c.Membership, role)
	})
}

type RevokeCmd struct {
	Membership string `arg:"" help:"Membership ID"`
	Actor      string `help:"User ID of the administrator performing the change" env:"ORGKIT_ACTOR"`
}

func (r *RevokeCmd) Run(ctx context.Context, globals *Globals) error {
	return runTransition(ctx, globals, r.Actor, func(ctx context.Context, store *orgkit.Store) (*orgkit.Membership, error) {
		return store.Revoke(ctx, r.Membership)
	})
}

func runTransition(ctx context.Context, globals *Globals, actor string, fn func(context.Context, *orgkit.Store) (*orgkit.Membership, error)) error {
	store, closeDB, err := openStore(globals)
	if err != nil {
		return err
	}
	defer closeDB()

	m, err := fn(withActor(ctx, actor), store)
	if err != nil {
		return err
	}
	printMembership(m)
	return nil
}

type MembersCmd struct {
	Organization string `arg:"" help:"Organization ID"`
	User         string `help:"List organizations for this user instead" default:""`
}

func (m *MembersCmd) Run(ctx context.Context, globals *Globals) error {
	store, closeDB, err := openStore(globals)
	if err != nil {
		return err
	}
	defer closeDB()

	if m.User != "" {
		orgs, err := store.ListOrganizationsForUser(ctx, m.User)
		if err != nil {
			return err
		}
		for _, id := range orgs {
			fmt.Println(id)
		}
		return nil
	}

	memberships, err := store.ListMemberships(ctx, m.Organization)
	if err != nil {
		return err
	}
	for i := range memberships {
		printMembership(&memberships[i])
	}
	return nil
}

type SwitchCmd struct {
	User         string `arg:"" help:"User ID"`
	Organization string `arg:"" help:"Organization ID to make active"`
}

func (s *SwitchCmd) Run(ctx context.Context, globals *Globals) error {
	store, closeDB, err := openStore(globals)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := store.SwitchOrganization(ctx, s.User, s.Organization); err != nil {
		return err
	}
	log.Info().Str("user_id", s.User).Str("organization_id", s.Organization).Msg("Active organization updated")
	return nil
}
